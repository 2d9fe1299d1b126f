package service

import (
	"context"
	"errors"
	"strconv"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/entity"
	cognitoclient "estatehub/cmd/internal/integration/aws/cognito"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/aws/smithy-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int) (*entity.User, error)
	FindBySub(ctx context.Context, sub string) (*entity.User, error)
	FindAll(ctx context.Context) ([]*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *entity.User) error
}

type CreateUserRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=1,max=80"`
	LastName  string  `json:"last_name" validate:"required,min=1,max=80"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
	Password  string  `json:"password" validate:"required,min=8,max=64,hasspecial,hasdigit,hasupper,haslower,nospaces"`
	Role      string  `json:"role" validate:"omitempty,oneof=client agent"`
}

type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

type ConfirmSignupRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=1,max=6"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=client agent admin"`
}

type UserResponse struct {
	ID            int     `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	DisplayName   string  `json:"display_name"`
	Email         string  `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Role          string  `json:"role"`
	EmailVerified bool    `json:"email_verified"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type UserLoginResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int32  `json:"expires_in"`
}

type DefaultUserService struct {
	UserRepo UserRepository
	Validate *validator.Validate
	Cognito  cognitoclient.CognitoInterface
}

func NewUserService(userRepo UserRepository, validate *validator.Validate, cogClient cognitoclient.CognitoInterface) *DefaultUserService {
	return &DefaultUserService{UserRepo: userRepo, Validate: validate, Cognito: cogClient}
}

func (u *DefaultUserService) GetUsers(ctx context.Context, caller *auth.Principal) ([]*UserResponse, apierror.ErrorResponse) {
	if apierr := requireAdmin(caller); apierr != nil {
		return nil, apierr
	}

	users, err := u.UserRepo.FindAll(ctx)
	if err != nil {
		log.Errorf("failed to fetch all users: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*UserResponse, len(users))
	for i, user := range users {
		resp[i] = toUserResponse(user, true)
	}
	return resp, nil
}

// GetUser resolves rawId ("@me" or a numeric id). Contact details are only
// shown to the user themselves and to admins.
func (u *DefaultUserService) GetUser(ctx context.Context, rawId string, caller *auth.Principal) (*UserResponse, apierror.ErrorResponse) {
	user, apierr := u.fetchUser(ctx, rawId, caller)
	if apierr != nil {
		return nil, apierr
	}

	if user == nil {
		return nil, apierror.NotFoundError
	}

	resp := toUserResponse(user, caller.Owns(user.ID))
	return resp, nil
}

// CreateUser creates a new user on the identity provider (as well as in our
// database), which sends a verification code to the user's email address.
func (u *DefaultUserService) CreateUser(ctx context.Context, req *CreateUserRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	found, err := u.UserRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		log.Errorf("failed to check if user already exists: %v", err)
		return apierror.InternalServerError
	}

	if found {
		return apierror.UserAlreadyExistsError
	}

	cogUser := &cognitoclient.User{Email: req.Email, Password: req.Password}
	sub, apierr, revert := handleUserSignup(ctx, u.Cognito, cogUser)
	if apierr != nil {
		return apierr
	}

	role := entity.RoleClient
	if req.Role != "" {
		role = entity.Role(req.Role)
	}

	user := &entity.User{
		SubUUID:       sub,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Role:          role,
		EmailVerified: false,
	}

	err = u.UserRepo.Save(ctx, user)
	if err != nil {
		revert()
		log.Errorf("failed to create user: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func (u *DefaultUserService) Login(ctx context.Context, req *UserLoginRequest) (*UserLoginResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	user, err := u.UserRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		log.Errorf("failed to fetch user from database: %v", err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return nil, apierror.IDPUserNotFoundError
	}

	credentials := &cognitoclient.UserLogin{
		Email:    req.Email,
		Password: req.Password,
	}

	tokens, apierr := handleUserSignin(ctx, u.Cognito, credentials)
	if apierr != nil {
		return nil, apierr
	}
	return &UserLoginResponse{AccessToken: tokens.AccessToken, IDToken: tokens.IDToken, ExpiresIn: tokens.ExpiresIn}, nil
}

func (u *DefaultUserService) ConfirmSignup(ctx context.Context, req *ConfirmSignupRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	user, err := u.UserRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		log.Errorf("failed to fetch user from database: %v", err)
		return apierror.InternalServerError
	}

	if user == nil {
		return apierror.IDPUserNotFoundError
	}

	if user.EmailVerified {
		return apierror.UserAlreadyConfirmedError
	}

	confirms := &cognitoclient.UserConfirmation{
		Email: req.Email,
		Code:  req.Code,
	}

	apierr := handleSignupConfirmation(ctx, u.Cognito, confirms)
	if apierr != nil {
		return apierr
	}

	user.EmailVerified = true
	if err := u.UserRepo.Save(ctx, user); err != nil {
		// The provider already confirmed the account; the flag is advisory.
		log.Errorf("failed to update user (%d) verified status: %v", user.ID, err)
	}
	return nil
}

func (u *DefaultUserService) UpdateRole(ctx context.Context, caller *auth.Principal, id int, req *UpdateRoleRequest) (*UserResponse, apierror.ErrorResponse) {
	if apierr := requireAdmin(caller); apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	user, err := u.UserRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to find user (%d) by id: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if user == nil {
		return nil, apierror.NotFoundError
	}

	user.Role = entity.Role(req.Role)
	if err := u.UserRepo.Save(ctx, user); err != nil {
		log.Errorf("failed to update role of user (%d): %v", id, err)
		return nil, apierror.InternalServerError
	}
	return toUserResponse(user, true), nil
}

func (u *DefaultUserService) fetchUser(ctx context.Context, rawId string, caller *auth.Principal) (*entity.User, apierror.ErrorResponse) {
	if rawId == "@me" {
		return u.fetchBySub(ctx, caller.Sub)
	}
	return u.fetchByID(ctx, rawId)
}

func (u *DefaultUserService) fetchBySub(ctx context.Context, sub string) (*entity.User, apierror.ErrorResponse) {
	user, err := u.UserRepo.FindBySub(ctx, sub)
	if err != nil {
		log.Errorf("failed to find user (%s) by sub: %v", sub, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func (u *DefaultUserService) fetchByID(ctx context.Context, rawId string) (*entity.User, apierror.ErrorResponse) {
	userId, err := strconv.Atoi(rawId)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("id", "int")
	}
	user, err := u.UserRepo.FindByID(ctx, userId)
	if err != nil {
		log.Errorf("failed to find user (%s) by id: %v", rawId, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func handleUserSignup(ctx context.Context, cogClient cognitoclient.CognitoInterface, req *cognitoclient.User) (string, apierror.ErrorResponse, func()) {
	revert := func() {
		if err := cogClient.AdminDeleteUser(context.WithoutCancel(ctx), req.Email); err != nil {
			log.Errorf("failed to revert signup of %s: %v", req.Email, err)
		}
	}

	sub, err := cogClient.SignUp(ctx, req)
	if err == nil {
		return sub, nil, revert
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidPasswordException":
			return "", apierror.IDPInvalidPasswordError, revert
		case "UsernameExistsException":
			return "", apierror.IDPExistingEmailError, revert
		default:
			log.Errorf("signup failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return "", apierror.InternalServerError, revert
		}
	}

	log.Errorf("failed to signup user (%s): %v", req.Email, err)
	return "", apierror.InternalServerError, revert
}

func handleUserSignin(ctx context.Context, cogClient cognitoclient.CognitoInterface, req *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, apierror.ErrorResponse) {
	tokens, err := cogClient.SignIn(ctx, req)
	if err == nil {
		return tokens, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UserNotFoundException":
			return nil, apierror.IDPUserNotFoundError
		case "UserNotConfirmedException":
			return nil, apierror.IDPUserNotConfirmedError
		case "NotAuthorizedException":
			return nil, apierror.IDPCredentialsMismatchError
		default:
			log.Errorf("signin failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return nil, apierror.InternalServerError
		}
	}

	log.Errorf("failed to signin user (%s): %v", req.Email, err)
	return nil, apierror.InternalServerError
}

func handleSignupConfirmation(ctx context.Context, cogClient cognitoclient.CognitoInterface, req *cognitoclient.UserConfirmation) apierror.ErrorResponse {
	err := cogClient.ConfirmAccount(ctx, req)
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "CodeMismatchException":
			return apierror.IDPConfirmCodeMismatchError
		case "ExpiredCodeException":
			return apierror.IDPConfirmCodeExpiredError
		case "UserNotFoundException":
			return apierror.IDPUserNotFoundError
		default:
			log.Errorf("confirmation failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return apierror.InternalServerError
		}
	}

	log.Errorf("failed to confirm user (%s): %v", req.Email, err)
	return apierror.InternalServerError
}

func toUserResponse(user *entity.User, withContact bool) *UserResponse {
	resp := &UserResponse{
		ID:            user.ID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		DisplayName:   user.DisplayName(),
		Role:          string(user.Role),
		EmailVerified: user.EmailVerified,
		CreatedAt:     utils.FormatEpoch(user.CreatedAt),
		UpdatedAt:     utils.FormatEpoch(user.UpdatedAt),
	}
	if withContact {
		resp.Email = user.Email
		resp.Phone = user.Phone
	}
	return resp
}
