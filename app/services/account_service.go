package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/pinocoladium/marketplace/app/repositories"
	"gorm.io/gorm"
)

type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Username  string `json:"username" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	Company   string `json:"company" validate:"max=40"`
	Position  string `json:"position" validate:"max=40"`
}

type ContactInput struct {
	City      string `json:"city" validate:"max=50"`
	Street    string `json:"street" validate:"max=100"`
	House     string `json:"house" validate:"max=15"`
	Structure string `json:"structure" validate:"max=15"`
	Building  string `json:"building" validate:"max=15"`
	Apartment string `json:"apartment" validate:"max=15"`
	Phone     string `json:"phone" validate:"required,max=20"`
}

type AccountService struct {
	db          *gorm.DB
	clientRepo  repositories.ClientRepository
	shopRepo    repositories.ShopRepository
	contactRepo repositories.ContactRepository
	tokenRepo   repositories.TokenRepository
	orderRepo   repositories.OrderRepository
	catalogRepo repositories.CatalogRepository
	bus         notifications.Bus
	validate    *validator.Validate
}

func NewAccountService(
	db *gorm.DB,
	clientRepo repositories.ClientRepository,
	shopRepo repositories.ShopRepository,
	contactRepo repositories.ContactRepository,
	tokenRepo repositories.TokenRepository,
	orderRepo repositories.OrderRepository,
	catalogRepo repositories.CatalogRepository,
	bus notifications.Bus,
) *AccountService {
	return &AccountService{
		db:          db,
		clientRepo:  clientRepo,
		shopRepo:    shopRepo,
		contactRepo: contactRepo,
		tokenRepo:   tokenRepo,
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		bus:         bus,
		validate:    validator.New(),
	}
}

// Register creates a buyer account. Shop accounts are not self-service; a
// shop profile is attached later through CreateShop. When no password is
// supplied one is generated and returned so the caller can hand it over once.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.Client, string, error) {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, "", NewValidationError(verrs[0].Field(), "failed %q check", verrs[0].Tag())
		}
		return nil, "", NewValidationError("input", "%v", err)
	}

	password := input.Password
	generated := ""
	if password == "" {
		p, err := helpers.GeneratePassword()
		if err != nil {
			return nil, "", err
		}
		password = p
		generated = p
	}

	client := &models.Client{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     input.Email,
		Password:  helpers.HashPassword(password),
		Company:   input.Company,
		Position:  input.Position,
		Type:      models.ClientTypeBuyer,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", fmt.Errorf("email or username already taken: %w", ErrConflict)
		}
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.IssueToken(ctx, client.ID); err != nil {
		return client, generated, fmt.Errorf("failed to issue confirmation token: %w", err)
	}
	return client, generated, nil
}

// Login checks credentials and returns the account.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Client, error) {
	client, err := s.clientRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if client == nil || !helpers.PasswordCompare(client.Password, []byte(password)) {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// IssueToken invalidates any previous verification token and queues a
// confirmation event carrying the fresh key.
func (s *AccountService) IssueToken(ctx context.Context, clientID string) error {
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if client == nil {
		return ErrClientNotFound
	}

	token, err := s.tokenRepo.Replace(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to replace token: %w", err)
	}

	s.bus.Publish(notifications.NewEvent(notifications.EventEmailConfirmationRequested, client.Email, notifications.EmailConfirmationPayload{
		AccountID: client.ID,
		Token:     token.Key,
	}))
	return nil
}

// Verify activates the account when the supplied key matches the active
// token. An expired token is replaced on the spot and reported as such, so
// the client gets a fresh key without asking.
func (s *AccountService) Verify(ctx context.Context, email, key string) error {
	client, err := s.clientRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if client == nil {
		return ErrClientNotFound
	}
	if client.Active {
		return ErrAlreadyVerified
	}

	token, err := s.tokenRepo.FindByClientID(ctx, client.ID)
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if token == nil {
		return ErrInvalidToken
	}
	if token.Expired(time.Now()) {
		if err := s.IssueToken(ctx, client.ID); err != nil {
			return fmt.Errorf("failed to reissue token: %w", err)
		}
		return ErrTokenExpired
	}
	if token.Key != key {
		return ErrInvalidToken
	}

	if err := s.clientRepo.SetActive(ctx, client.ID, true); err != nil {
		return fmt.Errorf("failed to activate account: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.tokenRepo.DeleteByClientID(ctx, tx, client.ID)
	})
}

type ProfileUpdateInput struct {
	FirstName string `json:"first_name" validate:"omitempty,max=50"`
	LastName  string `json:"last_name" validate:"omitempty,max=50"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	Company   string `json:"company" validate:"omitempty,max=40"`
	Position  string `json:"position" validate:"omitempty,max=40"`
}

// UpdateProfile applies the non-empty fields of input to the account.
// Changing the email puts the account back into the unverified state and
// issues a fresh confirmation token.
func (s *AccountService) UpdateProfile(ctx context.Context, clientID string, input ProfileUpdateInput) (*models.Client, error) {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, NewValidationError(verrs[0].Field(), "failed %q check", verrs[0].Tag())
		}
		return nil, NewValidationError("input", "%v", err)
	}

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}

	emailChanged := false
	if input.FirstName != "" {
		client.FirstName = input.FirstName
	}
	if input.LastName != "" {
		client.LastName = input.LastName
	}
	if input.Company != "" {
		client.Company = input.Company
	}
	if input.Position != "" {
		client.Position = input.Position
	}
	if input.Email != "" && input.Email != client.Email {
		client.Email = input.Email
		client.Active = false
		emailChanged = true
	}
	if input.Password != "" {
		client.Password = helpers.HashPassword(input.Password)
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("email already taken: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	if emailChanged {
		if err := s.IssueToken(ctx, client.ID); err != nil {
			return nil, err
		}
	}
	return client, nil
}

// ResetPassword stores a freshly generated password and queues it for
// delivery to the account's address.
func (s *AccountService) ResetPassword(ctx context.Context, email string) error {
	client, err := s.clientRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if client == nil {
		return ErrClientNotFound
	}

	password, err := helpers.GeneratePassword()
	if err != nil {
		return err
	}
	if err := s.clientRepo.UpdatePassword(ctx, client.ID, helpers.HashPassword(password)); err != nil {
		return fmt.Errorf("failed to store new password: %w", err)
	}

	s.bus.Publish(notifications.NewEvent(notifications.EventPasswordResetIssued, client.Email, notifications.PasswordResetPayload{
		AccountID:   client.ID,
		NewPassword: password,
	}))
	return nil
}

// DeleteAccount removes the client and everything it owns in one
// transaction, then queues the farewell event.
func (s *AccountService) DeleteAccount(ctx context.Context, clientID string) error {
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if client == nil {
		return ErrClientNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.tokenRepo.DeleteByClientID(ctx, tx, clientID); err != nil {
			return err
		}
		if err := s.contactRepo.DeleteByClientID(ctx, tx, clientID); err != nil {
			return err
		}
		if err := s.orderRepo.DeleteByClient(ctx, tx, clientID); err != nil {
			return err
		}
		shop, err := s.shopRepo.FindByClientID(ctx, clientID)
		if err != nil {
			return err
		}
		if shop != nil {
			if err := s.catalogRepo.DeleteShopListings(ctx, tx, shop.ID); err != nil {
				return err
			}
			if err := tx.Delete(&models.Shop{}, "id = ?", shop.ID).Error; err != nil {
				return err
			}
		}
		return s.clientRepo.Delete(ctx, tx, clientID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.bus.Publish(notifications.NewEvent(notifications.EventAccountDeleted, client.Email, notifications.AccountDeletedPayload{
		Email:    client.Email,
		Username: client.Username,
	}))
	return nil
}

// CreateShop attaches a shop profile to the account and flips its type.
// One shop per account.
func (s *AccountService) CreateShop(ctx context.Context, clientID, name, url string) (*models.Shop, error) {
	if name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}

	existing, err := s.shopRepo.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check shop: %w", err)
	}
	if existing != nil {
		return nil, ErrHasShop
	}

	shop := &models.Shop{
		Name:     name,
		URL:      url,
		ClientID: &clientID,
		State:    true,
	}
	if err := s.shopRepo.Create(ctx, shop); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrHasShop
		}
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}

	client.Type = models.ClientTypeShop
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update account type: %w", err)
	}
	return shop, nil
}

// ToggleShopState flips the accepting-orders flag and returns the new value.
func (s *AccountService) ToggleShopState(ctx context.Context, clientID string) (bool, error) {
	shop, err := s.shopRepo.FindByClientID(ctx, clientID)
	if err != nil {
		return false, fmt.Errorf("failed to load shop: %w", err)
	}
	if shop == nil {
		return false, ErrShopNotFound
	}
	newState := !shop.State
	if err := s.shopRepo.UpdateState(ctx, shop.ID, newState); err != nil {
		return false, fmt.Errorf("failed to update shop state: %w", err)
	}
	return newState, nil
}

// UpsertContact stores the buyer's single delivery contact.
func (s *AccountService) UpsertContact(ctx context.Context, clientID string, input ContactInput) (*models.Contact, error) {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, NewValidationError(verrs[0].Field(), "failed %q check", verrs[0].Tag())
		}
		return nil, NewValidationError("input", "%v", err)
	}

	contact := &models.Contact{
		ClientID:  clientID,
		City:      input.City,
		Street:    input.Street,
		House:     input.House,
		Structure: input.Structure,
		Building:  input.Building,
		Apartment: input.Apartment,
		Phone:     input.Phone,
	}
	if err := s.contactRepo.Upsert(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to store contact: %w", err)
	}
	return contact, nil
}

func (s *AccountService) GetContact(ctx context.Context, clientID string) (*models.Contact, error) {
	return s.contactRepo.FindByClientID(ctx, clientID)
}

func (s *AccountService) DeleteContact(ctx context.Context, clientID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.contactRepo.DeleteByClientID(ctx, tx, clientID)
	})
}
