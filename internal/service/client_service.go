package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/notify"
	"github.com/corvexa/it-services-portal/internal/repository"
	"github.com/corvexa/it-services-portal/internal/utils"
)

// RegisterClientInput is the company and first user of a new client.
// Password may be empty, in which case one is generated.
type RegisterClientInput struct {
	CompanyName    string
	CompanyEmail   string
	CompanyPhone   string
	CompanyAddress string
	FirstName      string
	LastName       string
	Email          string
	Password       string
}

// RegisterResult identifies the created rows.
type RegisterResult struct {
	CompanyID uint64
	UserID    uint64
}

// ClientService manages client accounts.
type ClientService struct {
	users         UserStore
	notifier      notify.Notifier
	bcryptCost    int
	publicBaseURL string
	log           *slog.Logger
}

func NewClientService(users UserStore, notifier notify.Notifier, bcryptCost int, publicBaseURL string, log *slog.Logger) *ClientService {
	if log == nil {
		log = slog.Default()
	}
	return &ClientService{users: users, notifier: notifier, bcryptCost: bcryptCost, publicBaseURL: publicBaseURL, log: log}
}

// Register creates the company and its user together and emails the
// credentials.  Duplicate emails yield repository.ErrEmailExists.
func (s *ClientService) Register(ctx context.Context, in RegisterClientInput) (RegisterResult, error) {
	fe := fieldErrors{}
	fe.required("companyName", in.CompanyName)
	fe.required("firstName", in.FirstName)
	fe.required("lastName", in.LastName)
	fe.required("email", in.Email)
	if in.Password != "" && len(in.Password) < minPasswordLen {
		fe["password"] = fmt.Sprintf("min %d characters", minPasswordLen)
	}
	if err := fe.err(); err != nil {
		return RegisterResult{}, err
	}

	password := in.Password
	if password == "" {
		generated, err := utils.RandomHex(6)
		if err != nil {
			return RegisterResult{}, fmt.Errorf("generate password: %w", err)
		}
		password = generated
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return RegisterResult{}, &ValidationError{Fields: map[string]string{"password": "max 72 bytes"}}
		}
		return RegisterResult{}, err
	}

	cid, uid, err := s.users.CreateCompanyAndUser(ctx,
		model.Company{
			Name:    in.CompanyName,
			Email:   in.CompanyEmail,
			Phone:   in.CompanyPhone,
			Address: in.CompanyAddress,
		},
		model.User{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			PasswordHash: hash,
			Role:         model.RoleClient,
		})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return RegisterResult{}, err
		}
		return RegisterResult{}, fmt.Errorf("create client: %w", err)
	}

	s.log.Info("client registered", "company_id", cid, "user_id", uid)
	s.notifier.Send(ctx, notify.Credentials(repository.NormalizeEmail(in.Email), in.FirstName, password, s.publicBaseURL+"/signin.html"))
	return RegisterResult{CompanyID: cid, UserID: uid}, nil
}

// List returns every client account.
func (s *ClientService) List(ctx context.Context) ([]model.ClientSummary, error) {
	return s.users.ListClients(ctx)
}

// Get returns one client account by id.  Staff accounts are reported as
// repository.ErrNotFound.
func (s *ClientService) Get(ctx context.Context, id uint64) (model.ClientSummary, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.ClientSummary{}, err
	}
	if u.Role != model.RoleClient {
		return model.ClientSummary{}, repository.ErrNotFound
	}
	return model.ClientSummary{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CompanyID: u.CompanyID,
	}, nil
}
