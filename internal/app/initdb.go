package app

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/innolab/crmd/internal/domain"
	"github.com/innolab/crmd/pkg/common"
)

func (a *Application) checkUsers() {
	now := time.Now()
	fixtures := []domain.User{
		{
			FirstName: "John", LastName: "Doe",
			Email: "john.doe@innolab.com", PhoneNumber: "+1-555-0001",
			Role: domain.RoleAdmin, IsActive: true,
			CreatedAt: now.AddDate(0, 0, -30), UpdatedAt: now.AddDate(0, 0, -30),
		},
		{
			FirstName: "Jane", LastName: "Smith",
			Email: "jane.smith@innolab.com", PhoneNumber: "+1-555-0002",
			Role: domain.RoleModerator, IsActive: true,
			CreatedAt: now.AddDate(0, 0, -25), UpdatedAt: now.AddDate(0, 0, -25),
		},
		{
			FirstName: "Bob", LastName: "Johnson",
			Email: "bob.johnson@innolab.com", PhoneNumber: "+1-555-0003",
			Role: domain.RoleUser, IsActive: true,
			CreatedAt: now.AddDate(0, 0, -20), UpdatedAt: now.AddDate(0, 0, -20),
		},
	}
	for _, fixture := range fixtures {
		var existing domain.User
		err := a.gormDB.Where("LOWER(email) = LOWER(?)", fixture.Email).First(&existing).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		fixture.ID = common.UUIDint64()
		login := now.Add(-2 * time.Hour)
		fixture.LastLoginAt = &login
		if err := a.gormDB.Create(&fixture).Error; err != nil {
			zap.L().Error("failed to seed user", zap.String("email", fixture.Email), zap.Error(err))
		} else {
			zap.L().Info("seeded user", zap.String("email", fixture.Email))
		}
	}
}

func (a *Application) seedUserID(email string) *int64 {
	var u domain.User
	if err := a.gormDB.Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil
	}
	return &u.ID
}

func (a *Application) checkProducts() {
	now := time.Now()
	type productFixture struct {
		domain.Product
		ownerEmail string
		age        int
	}
	fixtures := []productFixture{
		{Product: domain.Product{
			Name:        "Wireless Bluetooth Headphones",
			Description: "High-quality wireless headphones with noise cancellation and 30-hour battery life.",
			Price:       149.99, Category: "Electronics", StockQuantity: 50, Sku: "WBH-001",
		}, ownerEmail: "john.doe@innolab.com", age: 15},
		{Product: domain.Product{
			Name:        "Ergonomic Office Chair",
			Description: "Comfortable office chair with lumbar support and adjustable height.",
			Price:       299.99, Category: "Furniture", StockQuantity: 25, Sku: "EOC-002",
		}, ownerEmail: "jane.smith@innolab.com", age: 12},
		{Product: domain.Product{
			Name:        "Smart Water Bottle",
			Description: "Smart water bottle with temperature control and hydration tracking.",
			Price:       79.99, Category: "Health & Fitness", StockQuantity: 100, Sku: "SWB-003",
		}, ownerEmail: "bob.johnson@innolab.com", age: 10},
		{Product: domain.Product{
			Name:        "Mechanical Gaming Keyboard",
			Description: "RGB backlit mechanical keyboard with Cherry MX switches for gaming.",
			Price:       129.99, Category: "Electronics", StockQuantity: 75, Sku: "MGK-004",
		}, ownerEmail: "john.doe@innolab.com", age: 8},
		{Product: domain.Product{
			Name:        "Organic Coffee Beans",
			Description: "Premium organic coffee beans sourced from sustainable farms.",
			Price:       24.99, Category: "Food & Beverage", StockQuantity: 200, Sku: "OCB-005",
		}, ownerEmail: "jane.smith@innolab.com", age: 5},
	}
	for _, fixture := range fixtures {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("sku = ?", fixture.Sku).Count(&count)
		if count > 0 {
			continue
		}
		product := fixture.Product
		product.ID = common.UUIDint64()
		product.IsActive = true
		product.CreatedAt = now.AddDate(0, 0, -fixture.age)
		product.UpdatedAt = product.CreatedAt
		product.CreatedByUserID = a.seedUserID(fixture.ownerEmail)
		if err := a.gormDB.Create(&product).Error; err != nil {
			zap.L().Error("failed to seed product", zap.String("sku", product.Sku), zap.Error(err))
		} else {
			zap.L().Info("seeded product", zap.String("sku", product.Sku))
		}
	}
}

func (a *Application) checkTechnologies() {
	fixtures := []domain.Technology{
		{Name: "React", Category: "frontend", Color: "#61DAFB"},
		{Name: "Next.js", Category: "frontend", Color: "#000000"},
		{Name: "TypeScript", Category: "frontend", Color: "#3178C6"},
		{Name: "Node.js", Category: "backend", Color: "#339933"},
		{Name: "Python", Category: "backend", Color: "#3776AB"},
		{Name: "PostgreSQL", Category: "database", Color: "#336791"},
		{Name: "MongoDB", Category: "database", Color: "#47A248"},
		{Name: "AWS", Category: "cloud", Color: "#232F3E"},
		{Name: "Azure", Category: "cloud", Color: "#0078D4"},
		{Name: "Docker", Category: "devops", Color: "#2496ED"},
		{Name: "Kubernetes", Category: "devops", Color: "#326CE5"},
		{Name: "React Native", Category: "mobile", Color: "#61DAFB"},
		{Name: "Flutter", Category: "mobile", Color: "#02569B"},
		{Name: "Java", Category: "backend", Color: "#007396"},
		{Name: "C#", Category: "backend", Color: "#239120"},
		{Name: "Angular", Category: "frontend", Color: "#DD0031"},
		{Name: "Vue.js", Category: "frontend", Color: "#4FC08D"},
		{Name: "GraphQL", Category: "backend", Color: "#E10098"},
		{Name: "Redis", Category: "database", Color: "#DC382D"},
		{Name: "Terraform", Category: "devops", Color: "#7B42BC"},
	}
	for _, fixture := range fixtures {
		var count int64
		a.gormDB.Model(&domain.Technology{}).Where("name = ?", fixture.Name).Count(&count)
		if count > 0 {
			continue
		}
		fixture.ID = common.UUIDint64()
		if err := a.gormDB.Create(&fixture).Error; err != nil {
			zap.L().Error("failed to seed technology", zap.String("name", fixture.Name), zap.Error(err))
		}
	}
}

func (a *Application) seedTechnologies(names ...string) []domain.Technology {
	var techs []domain.Technology
	a.gormDB.Where("name IN ?", names).Find(&techs)
	return techs
}

func (a *Application) checkClients() {
	fixtures := []domain.Client{
		{
			Name: "TechCorp Solutions", Industry: "Technology", Size: "large",
			ContactPerson: "Sarah Johnson", Email: "sarah.johnson@techcorp.com",
			Phone: "+1-555-0123", Address: "123 Tech Street, San Francisco, CA 94105",
			Website: "https://techcorp.com",
		},
		{
			Name: "FinanceMax Inc", Industry: "Financial Services", Size: "enterprise",
			ContactPerson: "Michael Chen", Email: "michael.chen@financemax.com",
			Phone: "+1-555-0234", Address: "456 Wall Street, New York, NY 10005",
			Website: "https://financemax.com",
		},
		{
			Name: "HealthTech Innovations", Industry: "Healthcare", Size: "medium",
			ContactPerson: "Dr. Emily Rodriguez", Email: "emily.rodriguez@healthtech.com",
			Phone: "+1-555-0345", Address: "789 Medical Center Blvd, Boston, MA 02101",
			Website: "https://healthtech-innovations.com",
		},
		{
			Name: "EduLearn Platform", Industry: "Education", Size: "startup",
			ContactPerson: "James Wilson", Email: "james.wilson@edulearn.com",
			Phone: "+1-555-0456", Address: "321 University Ave, Palo Alto, CA 94301",
			Website: "https://edulearn.com",
		},
		{
			Name: "RetailGenius", Industry: "Retail", Size: "large",
			ContactPerson: "Lisa Thompson", Email: "lisa.thompson@retailgenius.com",
			Phone: "+1-555-0567", Address: "654 Commerce Drive, Chicago, IL 60601",
			Website: "https://retailgenius.com",
		},
	}
	for _, fixture := range fixtures {
		var count int64
		a.gormDB.Model(&domain.Client{}).Where("name = ?", fixture.Name).Count(&count)
		if count > 0 {
			continue
		}
		fixture.ID = common.UUIDint64()
		if err := a.gormDB.Create(&fixture).Error; err != nil {
			zap.L().Error("failed to seed client", zap.String("name", fixture.Name), zap.Error(err))
		} else {
			zap.L().Info("seeded client", zap.String("name", fixture.Name))
		}
	}
}

func (a *Application) checkConsultants() {
	type consultantFixture struct {
		domain.Consultant
		skills []string
	}
	fixtures := []consultantFixture{
		{Consultant: domain.Consultant{
			FirstName: "John", LastName: "Smith", Email: "john.smith@innolab.com",
			Phone: "+1-555-1001", Title: "Senior Frontend Developer", Department: "Engineering",
			Experience: 8, Availability: domain.AvailabilityAvailable,
		}, skills: []string{"React", "Next.js", "TypeScript"}},
		{Consultant: domain.Consultant{
			FirstName: "Maria", LastName: "Garcia", Email: "maria.garcia@innolab.com",
			Phone: "+1-555-1002", Title: "Full Stack Developer", Department: "Engineering",
			Experience: 6, Availability: domain.AvailabilityBusy,
		}, skills: []string{"Node.js", "Python", "PostgreSQL"}},
		{Consultant: domain.Consultant{
			FirstName: "David", LastName: "Kim", Email: "david.kim@innolab.com",
			Phone: "+1-555-1003", Title: "Cloud Solutions Architect", Department: "Cloud Services",
			Experience: 12, Availability: domain.AvailabilityAvailable,
		}, skills: []string{"AWS", "Azure", "Docker"}},
		{Consultant: domain.Consultant{
			FirstName: "Sophie", LastName: "Brown", Email: "sophie.brown@innolab.com",
			Phone: "+1-555-1004", Title: "Mobile App Developer", Department: "Mobile",
			Experience: 5, Availability: domain.AvailabilityAvailable,
		}, skills: []string{"React Native", "Flutter"}},
		{Consultant: domain.Consultant{
			FirstName: "Alex", LastName: "Johnson", Email: "alex.johnson@innolab.com",
			Phone: "+1-555-1005", Title: "DevOps Engineer", Department: "Infrastructure",
			Experience: 7, Availability: domain.AvailabilityUnavailable,
		}, skills: []string{"Docker", "Kubernetes", "Terraform"}},
	}
	for _, fixture := range fixtures {
		var count int64
		a.gormDB.Model(&domain.Consultant{}).Where("LOWER(email) = LOWER(?)", fixture.Email).Count(&count)
		if count > 0 {
			continue
		}
		consultant := fixture.Consultant
		consultant.ID = common.UUIDint64()
		consultant.Skills = a.seedTechnologies(fixture.skills...)
		if err := a.gormDB.Create(&consultant).Error; err != nil {
			zap.L().Error("failed to seed consultant", zap.String("email", consultant.Email), zap.Error(err))
		} else {
			zap.L().Info("seeded consultant", zap.String("email", consultant.Email))
		}
	}
}

func (a *Application) seedConsultantID(email string) *int64 {
	var consultant domain.Consultant
	if err := a.gormDB.Where("LOWER(email) = LOWER(?)", email).First(&consultant).Error; err != nil {
		return nil
	}
	return &consultant.ID
}

func (a *Application) checkCertifications() {
	now := time.Now()
	type certFixture struct {
		domain.Certification
		ownerEmail string
	}
	expSoon := now.AddDate(0, 2, 0)
	expFar := now.AddDate(1, 6, 0)
	expPast := now.AddDate(0, -3, 0)
	fixtures := []certFixture{
		{Certification: domain.Certification{
			Name: "AWS Certified Developer", IssuingOrganization: "Amazon Web Services",
			IssueDate: now.AddDate(-2, 0, 0), ExpirationDate: &expFar,
			Category: "cloud", Level: "associate", VerificationStatus: "verified",
		}, ownerEmail: "john.smith@innolab.com"},
		{Certification: domain.Certification{
			Name: "Google Cloud Professional", IssuingOrganization: "Google",
			IssueDate: now.AddDate(-1, -6, 0), ExpirationDate: &expSoon,
			Category: "cloud", Level: "professional", VerificationStatus: "verified",
		}, ownerEmail: "maria.garcia@innolab.com"},
		{Certification: domain.Certification{
			Name: "AWS Solutions Architect", IssuingOrganization: "Amazon Web Services",
			IssueDate: now.AddDate(-3, 0, 0), ExpirationDate: &expPast,
			Category: "cloud", Level: "professional", VerificationStatus: "verified",
		}, ownerEmail: "david.kim@innolab.com"},
		{Certification: domain.Certification{
			Name: "CKAD", IssuingOrganization: "Cloud Native Computing Foundation",
			IssueDate: now.AddDate(-1, 0, 0), ExpirationDate: &expFar,
			Category: "devops", Level: "specialist", VerificationStatus: "verified",
		}, ownerEmail: "david.kim@innolab.com"},
		{Certification: domain.Certification{
			Name: "Flutter Developer", IssuingOrganization: "Google",
			IssueDate: now.AddDate(0, -10, 0),
			Category: "development", Level: "associate", VerificationStatus: "pending",
		}, ownerEmail: "sophie.brown@innolab.com"},
		{Certification: domain.Certification{
			Name: "Terraform Associate", IssuingOrganization: "HashiCorp",
			IssueDate: now.AddDate(-1, -2, 0), ExpirationDate: &expFar,
			Category: "devops", Level: "associate", VerificationStatus: "verified",
		}, ownerEmail: "alex.johnson@innolab.com"},
	}
	for _, fixture := range fixtures {
		var count int64
		a.gormDB.Model(&domain.Certification{}).
			Where("name = ? AND issuing_organization = ?", fixture.Name, fixture.IssuingOrganization).
			Count(&count)
		if count > 0 {
			continue
		}
		cert := fixture.Certification
		cert.ID = common.UUIDint64()
		cert.ConsultantID = a.seedConsultantID(fixture.ownerEmail)
		cert.Status = cert.ComputeStatus(now)
		cert.CreatedAt = now
		cert.UpdatedAt = now
		if err := a.gormDB.Create(&cert).Error; err != nil {
			zap.L().Error("failed to seed certification", zap.String("name", cert.Name), zap.Error(err))
		} else {
			zap.L().Info("seeded certification", zap.String("name", cert.Name))
		}
	}
}

func (a *Application) checkProjects() {
	type projectFixture struct {
		domain.Project
		clientName      string
		consultantEmail string
		technologies    []string
	}
	budget := func(v float64) *float64 { return &v }
	fixtures := []projectFixture{
		{Project: domain.Project{
			Name:           "E-commerce Platform Modernization",
			Description:    "Complete overhaul of the existing e-commerce platform using modern React stack with improved performance and user experience.",
			Status:         domain.ProjectActive, Priority: "high", ProjectType: "development",
			StartDate:      time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
			EstimatedHours: 800, ActualHours: 120,
			Budget:         budget(120000), InvoiceAmount: budget(18000),
			Deliverables:   domain.StringList{"Modernized frontend application", "Performance optimization", "Mobile responsive design", "SEO improvements", "Admin dashboard"},
			Risks:          domain.StringList{"Integration with legacy payment system", "Data migration complexity", "Third-party API dependencies"},
			Notes:          "Client has requested additional security features for PCI compliance.",
		}, clientName: "TechCorp Solutions", consultantEmail: "john.smith@innolab.com",
			technologies: []string{"React", "Next.js", "TypeScript", "PostgreSQL"}},
		{Project: domain.Project{
			Name:           "Financial Dashboard Analytics",
			Description:    "Development of a comprehensive financial analytics dashboard with real-time data visualization and reporting capabilities.",
			Status:         domain.ProjectPlanning, Priority: "urgent", ProjectType: "development",
			StartDate:      time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			EstimatedHours: 600,
			Budget:         budget(90000),
			Deliverables:   domain.StringList{"Real-time analytics dashboard", "Custom reporting system", "Data visualization components", "API integration", "User management system"},
			Risks:          domain.StringList{"Complex data requirements", "Real-time performance challenges", "Regulatory compliance needs"},
			Notes:          "Requires SOC 2 compliance and extensive security measures.",
		}, clientName: "FinanceMax Inc", consultantEmail: "maria.garcia@innolab.com",
			technologies: []string{"React", "Node.js", "PostgreSQL", "GraphQL"}},
		{Project: domain.Project{
			Name:           "Healthcare Data Migration",
			Description:    "Migration of legacy healthcare data systems to modern cloud infrastructure with improved security and compliance.",
			Status:         domain.ProjectActive, Priority: "high", ProjectType: "consulting",
			StartDate:      time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			EstimatedHours: 500, ActualHours: 180,
			Budget:         budget(75000), InvoiceAmount: budget(27000),
			Deliverables:   domain.StringList{"Data migration strategy", "Cloud infrastructure setup", "Security implementation", "Compliance documentation", "Staff training"},
			Risks:          domain.StringList{"HIPAA compliance requirements", "Data integrity during migration", "Downtime minimization"},
			Notes:          "Critical project with strict compliance requirements.",
		}, clientName: "HealthTech Innovations", consultantEmail: "david.kim@innolab.com",
			technologies: []string{"AWS", "Docker", "PostgreSQL", "Python"}},
		{Project: domain.Project{
			Name:           "Educational Mobile App",
			Description:    "Development of a cross-platform mobile application for online learning with interactive features and offline capability.",
			Status:         domain.ProjectCompleted, Priority: "medium", ProjectType: "development",
			StartDate:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC),
			EstimatedHours: 400, ActualHours: 420,
			Budget:         budget(60000), InvoiceAmount: budget(63000),
			Deliverables:   domain.StringList{"Cross-platform mobile app", "Offline content capability", "User progress tracking", "Interactive learning modules", "Admin content management"},
			Risks:          domain.StringList{"App store approval process", "Performance on older devices", "Content delivery optimization"},
			Notes:          "Successfully launched with positive user feedback.",
		}, clientName: "EduLearn Platform", consultantEmail: "sophie.brown@innolab.com",
			technologies: []string{"React Native", "Node.js", "MongoDB"}},
		{Project: domain.Project{
			Name:           "Retail Inventory System",
			Description:    "Implementation of a modern inventory management system with real-time tracking and predictive analytics.",
			Status:         domain.ProjectOnHold, Priority: "low", ProjectType: "development",
			StartDate:      time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			EstimatedHours: 700, ActualHours: 60,
			Budget:         budget(105000), InvoiceAmount: budget(9000),
			Deliverables:   domain.StringList{"Inventory tracking system", "Predictive analytics dashboard", "Mobile companion app", "Integration with existing ERP", "Reporting and analytics"},
			Risks:          domain.StringList{"ERP system integration complexity", "Data accuracy requirements", "Scalability for multiple locations"},
			Notes:          "Project paused due to client budget constraints.",
		}, clientName: "RetailGenius", consultantEmail: "john.smith@innolab.com",
			technologies: []string{"React", "Node.js", "PostgreSQL", "AWS"}},
		{Project: domain.Project{
			Name:           "DevOps Infrastructure Audit",
			Description:    "Comprehensive audit and optimization of existing DevOps infrastructure with recommendations for improvement.",
			Status:         domain.ProjectCompleted, Priority: "medium", ProjectType: "audit",
			StartDate:      time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC),
			EstimatedHours: 200, ActualHours: 185,
			Budget:         budget(30000), InvoiceAmount: budget(27750),
			Deliverables:   domain.StringList{"Infrastructure audit report", "Security assessment", "Performance optimization plan", "Cost reduction recommendations", "Implementation roadmap"},
			Risks:          domain.StringList{"Minimal downtime requirements", "Legacy system dependencies", "Team training needs"},
			Notes:          "Audit completed successfully with 25% cost reduction achieved.",
		}, clientName: "TechCorp Solutions", consultantEmail: "alex.johnson@innolab.com",
			technologies: []string{"Docker", "Kubernetes", "Terraform", "AWS"}},
	}
	for _, fixture := range fixtures {
		var count int64
		a.gormDB.Model(&domain.Project{}).Where("name = ?", fixture.Name).Count(&count)
		if count > 0 {
			continue
		}
		var client domain.Client
		if err := a.gormDB.Where("name = ?", fixture.clientName).First(&client).Error; err != nil {
			continue
		}
		consultantID := a.seedConsultantID(fixture.consultantEmail)
		if consultantID == nil {
			continue
		}
		project := fixture.Project
		project.ID = common.UUIDint64()
		project.ClientID = client.ID
		project.ConsultantID = *consultantID
		project.Technologies = a.seedTechnologies(fixture.technologies...)
		if err := a.gormDB.Create(&project).Error; err != nil {
			zap.L().Error("failed to seed project", zap.String("name", project.Name), zap.Error(err))
		} else {
			zap.L().Info("seeded project", zap.String("name", project.Name))
		}
	}
}
