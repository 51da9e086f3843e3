package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dashride/referral-service/internal/adapter/repository"
	domainRepo "github.com/dashride/referral-service/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Rider         domainRepo.RiderRepository
	Attribution   domainRepo.AttributionRepository
	Visit         domainRepo.VisitRepository
	ChangeRequest domainRepo.ChangeRequestRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Rider:         repository.NewRiderRepository(db, logger),
		Attribution:   repository.NewAttributionRepository(db, logger),
		Visit:         repository.NewVisitRepository(db, logger),
		ChangeRequest: repository.NewChangeRequestRepository(db, logger),
	}
}
