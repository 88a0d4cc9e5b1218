package domain

var Tables = []interface{}{
	// Catalog
	&User{},
	&Product{},
	// Workspace
	&Client{},
	&Technology{},
	&Consultant{},
	&Certification{},
	&Project{},
}
