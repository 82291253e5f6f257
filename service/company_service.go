package services

import (
	"context"
	"log"
	"strings"

	model "github.com/Itish41/complytrack/models"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// RegistryService manages companies, their users, AI systems and system members.
type RegistryService struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewRegistryService(db *gorm.DB, validate *validator.Validate) *RegistryService {
	if validate == nil {
		validate = NewValidator()
	}
	return &RegistryService{db: db, validate: validate}
}

type CompanyInput struct {
	Name               string  `json:"name" validate:"required,max=255"`
	Address            *string `json:"address"`
	Country            *string `json:"country" validate:"omitempty,max=100"`
	ContactEmail       *string `json:"contact_email" validate:"omitempty,email"`
	RegistrationNumber *string `json:"registration_number" validate:"omitempty,max=100"`
	Website            *string `json:"website" validate:"omitempty,url"`
}

type UserInput struct {
	CompanyID *uint   `json:"company_id"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	FullName  *string `json:"full_name" validate:"omitempty,max=255"`
	Role      string  `json:"role" validate:"omitempty,max=50"`
	IsActive  *bool   `json:"is_active"`
}

type SystemInput struct {
	CompanyID      uint    `json:"company_id" validate:"required"`
	Name           string  `json:"name" validate:"required,max=255"`
	Purpose        *string `json:"purpose"`
	LifecycleStage *string `json:"lifecycle_stage" validate:"omitempty,max=50"`
	RiskTier       *string `json:"risk_tier" validate:"omitempty,max=50"`
	Status         *string `json:"status" validate:"omitempty,max=50"`
	OwnerUserID    *uint   `json:"owner_user_id"`
	Notes          *string `json:"notes"`
}

type MemberInput struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"omitempty,max=32"`
}

func (s *RegistryService) CreateCompany(ctx context.Context, in CompanyInput, actor Actor) (*model.Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}
	company := &model.Company{
		Name:               in.Name,
		Address:            in.Address,
		Country:            in.Country,
		ContactEmail:       in.ContactEmail,
		RegistrationNumber: in.RegistrationNumber,
		Website:            in.Website,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return translateError("create company", err)
		}
		_, err := writeAudit(tx, AuditEntry{
			CompanyID:  company.ID,
			UserID:     actor.UserID,
			IPAddress:  actor.IP,
			Action:     ActionCompanyCreated,
			EntityType: "company",
			EntityID:   &company.ID,
			Meta:       map[string]interface{}{"name": company.Name},
		})
		return err
	})
	if err != nil {
		log.Printf("[CreateCompany] Error: %v", err)
		return nil, err
	}
	log.Printf("[CreateCompany] Company %d created", company.ID)
	return company, nil
}

func (s *RegistryService) GetCompany(ctx context.Context, id uint) (*model.Company, error) {
	var company model.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, translateError("get company", err)
	}
	return &company, nil
}

func (s *RegistryService) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	if err := s.db.WithContext(ctx).Order("id").Find(&companies).Error; err != nil {
		return nil, translateError("list companies", err)
	}
	return companies, nil
}

// DeleteCompany removes a company. The database cascades the delete to its
// users, AI systems, tasks, members, notifications and audit logs.
func (s *RegistryService) DeleteCompany(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Company{}, id)
	if res.Error != nil {
		return translateError("delete company", res.Error)
	}
	if res.RowsAffected == 0 {
		return translateError("delete company", gorm.ErrRecordNotFound)
	}
	log.Printf("[DeleteCompany] Company %d deleted", id)
	return nil
}

func (s *RegistryService) CreateUser(ctx context.Context, in UserInput) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}
	user := &model.User{
		CompanyID: in.CompanyID,
		Email:     in.Email,
		FullName:  in.FullName,
		Role:      in.Role,
		IsActive:  true,
	}
	if user.Role == "" {
		user.Role = "member"
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translateError("create user", err)
	}
	return user, nil
}

func (s *RegistryService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError("get user", err)
	}
	return &user, nil
}

func (s *RegistryService) ListUsers(ctx context.Context, companyID uint) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Find(&users).Error; err != nil {
		return nil, translateError("list users", err)
	}
	return users, nil
}

func (s *RegistryService) CreateSystem(ctx context.Context, in SystemInput, actor Actor) (*model.AISystem, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}
	sys := &model.AISystem{
		CompanyID:      in.CompanyID,
		Name:           in.Name,
		Purpose:        in.Purpose,
		LifecycleStage: in.LifecycleStage,
		RiskTier:       in.RiskTier,
		Status:         in.Status,
		OwnerUserID:    in.OwnerUserID,
		Notes:          in.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sys).Error; err != nil {
			return translateError("create ai system", err)
		}
		_, err := writeAudit(tx, AuditEntry{
			CompanyID:  sys.CompanyID,
			UserID:     actor.UserID,
			IPAddress:  actor.IP,
			Action:     ActionSystemCreated,
			EntityType: "ai_system",
			EntityID:   &sys.ID,
			Meta:       map[string]interface{}{"name": sys.Name},
		})
		return err
	})
	if err != nil {
		log.Printf("[CreateSystem] Error: %v", err)
		return nil, err
	}
	return sys, nil
}

func (s *RegistryService) GetSystem(ctx context.Context, id uint) (*model.AISystem, error) {
	var sys model.AISystem
	if err := s.db.WithContext(ctx).First(&sys, id).Error; err != nil {
		return nil, translateError("get ai system", err)
	}
	return &sys, nil
}

func (s *RegistryService) ListSystems(ctx context.Context, companyID uint) ([]model.AISystem, error) {
	var systems []model.AISystem
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Find(&systems).Error; err != nil {
		return nil, translateError("list ai systems", err)
	}
	return systems, nil
}

// DeleteSystem removes an AI system together with its tasks and members.
func (s *RegistryService) DeleteSystem(ctx context.Context, id uint, actor Actor) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sys model.AISystem
		if err := tx.First(&sys, id).Error; err != nil {
			return translateError("delete ai system", err)
		}
		if err := tx.Delete(&sys).Error; err != nil {
			return translateError("delete ai system", err)
		}
		_, err := writeAudit(tx, AuditEntry{
			CompanyID:  sys.CompanyID,
			UserID:     actor.UserID,
			IPAddress:  actor.IP,
			Action:     ActionSystemDeleted,
			EntityType: "ai_system",
			EntityID:   &sys.ID,
			Meta:       map[string]interface{}{"name": sys.Name},
		})
		return err
	})
}

// AddMember attaches a user to an AI system. Adding the same user twice is
// rejected with a ValidationError.
func (s *RegistryService) AddMember(ctx context.Context, systemID uint, in MemberInput, actor Actor) (*model.AISystemMember, error) {
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}
	member := &model.AISystemMember{AISystemID: systemID, UserID: in.UserID, Role: in.Role}
	if member.Role == "" {
		member.Role = "contributor"
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sys model.AISystem
		if err := tx.First(&sys, systemID).Error; err != nil {
			return translateError("add member", err)
		}
		if err := tx.Create(member).Error; err != nil {
			return translateError("add member", err)
		}
		_, err := writeAudit(tx, AuditEntry{
			CompanyID:  sys.CompanyID,
			UserID:     actor.UserID,
			IPAddress:  actor.IP,
			Action:     ActionMemberAdded,
			EntityType: "ai_system",
			EntityID:   &sys.ID,
			Meta:       map[string]interface{}{"user_id": in.UserID, "role": member.Role},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *RegistryService) ListMembers(ctx context.Context, systemID uint) ([]model.AISystemMember, error) {
	var members []model.AISystemMember
	if err := s.db.WithContext(ctx).Where("ai_system_id = ?", systemID).Order("id").Find(&members).Error; err != nil {
		return nil, translateError("list members", err)
	}
	return members, nil
}
