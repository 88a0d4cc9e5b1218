package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/innolab/crmd/config"
	"github.com/innolab/crmd/internal/domain"
	"github.com/innolab/crmd/pkg/common"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrator().AutoMigrate(domain.Tables...))

	cfg := *config.DefaultAppConfig
	a := NewApplication(&cfg)
	a.OverrideDB(db)
	return a
}

func seedCert(t *testing.T, a *Application, name, status string, expiration *time.Time) domain.Certification {
	t.Helper()
	cert := domain.Certification{
		ID:                  common.UUIDint64(),
		Name:                name,
		IssuingOrganization: "Org",
		IssueDate:           time.Now().AddDate(-2, 0, 0),
		ExpirationDate:      expiration,
		Category:            "cloud",
		Level:               "associate",
		Status:              status,
		VerificationStatus:  "verified",
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	require.NoError(t, a.DB().Create(&cert).Error)
	return cert
}

func TestRefreshCertificationStatuses(t *testing.T) {
	a := newTestApplication(t)

	past := time.Now().AddDate(0, -1, 0)
	near := time.Now().AddDate(0, 1, 0)
	far := time.Now().AddDate(2, 0, 0)

	staleExpired := seedCert(t, a, "Stale Expired", domain.CertStatusActive, &past)
	drifting := seedCert(t, a, "Drifting", domain.CertStatusActive, &near)
	healthy := seedCert(t, a, "Healthy", domain.CertStatusActive, &far)
	evergreen := seedCert(t, a, "Evergreen", domain.CertStatusExpiringSoon, nil)
	revoked := seedCert(t, a, "Revoked", domain.CertStatusRevoked, &past)

	require.NoError(t, a.RefreshCertificationStatuses())

	status := func(id int64) string {
		var cert domain.Certification
		require.NoError(t, a.DB().Where("id = ?", id).First(&cert).Error)
		return cert.Status
	}

	require.Equal(t, domain.CertStatusExpired, status(staleExpired.ID))
	require.Equal(t, domain.CertStatusExpiringSoon, status(drifting.ID))
	require.Equal(t, domain.CertStatusActive, status(healthy.ID))
	// Missing expiration dates normalize back to active.
	require.Equal(t, domain.CertStatusActive, status(evergreen.ID))
	// Revoked is terminal.
	require.Equal(t, domain.CertStatusRevoked, status(revoked.ID))
}

func TestRefreshCertificationStatusesIsIdempotent(t *testing.T) {
	a := newTestApplication(t)

	past := time.Now().AddDate(0, -1, 0)
	cert := seedCert(t, a, "Once Expired", domain.CertStatusActive, &past)

	require.NoError(t, a.RefreshCertificationStatuses())
	var afterFirst domain.Certification
	require.NoError(t, a.DB().Where("id = ?", cert.ID).First(&afterFirst).Error)

	require.NoError(t, a.RefreshCertificationStatuses())
	var afterSecond domain.Certification
	require.NoError(t, a.DB().Where("id = ?", cert.ID).First(&afterSecond).Error)

	require.Equal(t, domain.CertStatusExpired, afterSecond.Status)
	require.Equal(t, afterFirst.UpdatedAt.Unix(), afterSecond.UpdatedAt.Unix())
}
