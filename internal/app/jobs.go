package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/innolab/crmd/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@daily", func() {
		if err := a.RefreshCertificationStatuses(); err != nil {
			zap.S().Errorf("certification status refresh failed: %v", err)
		}
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()

	// Statuses may have drifted while the process was down.
	go func() {
		if err := a.RefreshCertificationStatuses(); err != nil {
			zap.S().Errorf("certification status refresh failed: %v", err)
		}
	}()
}

// RefreshCertificationStatuses moves certifications between active,
// expiring_soon and expired based on the expiration date. Revoked
// certifications are never touched.
func (a *Application) RefreshCertificationStatuses() error {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	now := time.Now()
	soon := now.Add(domain.CertExpiringSoonWindow)

	expired := a.gormDB.Model(&domain.Certification{}).
		Where("expiration_date IS NOT NULL AND expiration_date < ?", now).
		Where("status NOT IN ?", []string{domain.CertStatusExpired, domain.CertStatusRevoked}).
		Updates(map[string]interface{}{"status": domain.CertStatusExpired, "updated_at": now})
	if expired.Error != nil {
		return expired.Error
	}

	expiring := a.gormDB.Model(&domain.Certification{}).
		Where("expiration_date IS NOT NULL AND expiration_date >= ? AND expiration_date <= ?", now, soon).
		Where("status NOT IN ?", []string{domain.CertStatusExpiringSoon, domain.CertStatusRevoked}).
		Updates(map[string]interface{}{"status": domain.CertStatusExpiringSoon, "updated_at": now})
	if expiring.Error != nil {
		return expiring.Error
	}

	active := a.gormDB.Model(&domain.Certification{}).
		Where("expiration_date IS NULL OR expiration_date > ?", soon).
		Where("status NOT IN ?", []string{domain.CertStatusActive, domain.CertStatusRevoked}).
		Updates(map[string]interface{}{"status": domain.CertStatusActive, "updated_at": now})
	if active.Error != nil {
		return active.Error
	}

	if n := expired.RowsAffected + expiring.RowsAffected + active.RowsAffected; n > 0 {
		zap.L().Info("certification statuses refreshed",
			zap.Int64("expired", expired.RowsAffected),
			zap.Int64("expiringSoon", expiring.RowsAffected),
			zap.Int64("reactivated", active.RowsAffected))
	}
	return nil
}
