package service

import (
	"context"
	"net/http"
	"testing"

	"estatehub/cmd/internal/domain/entity"
	cognitoclient "estatehub/cmd/internal/integration/aws/cognito"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type identityMock struct {
	mock.Mock
}

func (m *identityMock) SignUp(ctx context.Context, user *cognitoclient.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *identityMock) ConfirmAccount(ctx context.Context, confirmation *cognitoclient.UserConfirmation) error {
	return m.Called(ctx, confirmation).Error(0)
}

func (m *identityMock) SignIn(ctx context.Context, login *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, error) {
	args := m.Called(ctx, login)
	tokens, _ := args.Get(0).(*cognitoclient.AuthCreate)
	return tokens, args.Error(1)
}

func (m *identityMock) AdminDeleteUser(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *identityMock) VerifyToken(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

func idpError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

const strongPassword = "Sup3r$ecret"

func signupRequest(email string) *CreateUserRequest {
	return &CreateUserRequest{FirstName: "Ana", LastName: "Silva", Email: email, Password: strongPassword, Role: "agent"}
}

func TestCreateUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	idp := &identityMock{}
	svc := NewUserService(f.users, f.validate, idp)
	ctx := context.Background()

	idp.On("SignUp", mock.Anything, &cognitoclient.User{Email: "ana@example.com", Password: strongPassword}).Return("sub-ana", nil).Once()

	require.Nil(t, svc.CreateUser(ctx, signupRequest("ana@example.com")))

	user, err := f.users.FindBySub(ctx, "sub-ana")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, entity.RoleAgent, user.Role)
	require.False(t, user.EmailVerified)

	require.Equal(t, apierror.UserAlreadyExistsError, svc.CreateUser(ctx, signupRequest("ana@example.com")))
	idp.AssertExpectations(t)
}

func TestCreateUser_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	idp := &identityMock{}
	svc := NewUserService(f.users, f.validate, idp)
	ctx := context.Background()

	weak := signupRequest("weak@example.com")
	weak.Password = "password"
	apierr := svc.CreateUser(ctx, weak)
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())

	admin := signupRequest("admin@example.com")
	admin.Role = "admin"
	apierr = svc.CreateUser(ctx, admin)
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())

	idp.On("SignUp", mock.Anything, mock.Anything).Return("", idpError("UsernameExistsException")).Once()
	require.Equal(t, apierror.IDPExistingEmailError, svc.CreateUser(ctx, signupRequest("taken@example.com")))

	idp.On("SignUp", mock.Anything, mock.Anything).Return("", idpError("InvalidPasswordException")).Once()
	require.Equal(t, apierror.IDPInvalidPasswordError, svc.CreateUser(ctx, signupRequest("policy@example.com")))

	require.EqualValues(t, 0, f.count(t, &entity.User{}))
	idp.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	idp := &identityMock{}
	svc := NewUserService(f.users, f.validate, idp)
	ctx := context.Background()
	user := f.user(t, entity.RoleClient)
	email := user.Sub + "@example.com"

	_, apierr := svc.Login(ctx, &UserLoginRequest{Email: "nobody@example.com", Password: strongPassword})
	require.Equal(t, apierror.IDPUserNotFoundError, apierr)

	idp.On("SignIn", mock.Anything, &cognitoclient.UserLogin{Email: email, Password: "Wr0ng$pass"}).
		Return(nil, idpError("NotAuthorizedException")).Once()
	_, apierr = svc.Login(ctx, &UserLoginRequest{Email: email, Password: "Wr0ng$pass"})
	require.Equal(t, apierror.IDPCredentialsMismatchError, apierr)

	idp.On("SignIn", mock.Anything, &cognitoclient.UserLogin{Email: email, Password: strongPassword}).
		Return(&cognitoclient.AuthCreate{AccessToken: "access", IDToken: "id", ExpiresIn: 3600}, nil).Once()
	tokens, apierr := svc.Login(ctx, &UserLoginRequest{Email: email, Password: strongPassword})
	require.Nil(t, apierr)
	require.Equal(t, "access", tokens.AccessToken)
	require.EqualValues(t, 3600, tokens.ExpiresIn)
	idp.AssertExpectations(t)
}

func TestConfirmSignup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	idp := &identityMock{}
	svc := NewUserService(f.users, f.validate, idp)
	ctx := context.Background()

	idp.On("SignUp", mock.Anything, mock.Anything).Return("sub-new", nil).Once()
	require.Nil(t, svc.CreateUser(ctx, signupRequest("new@example.com")))

	idp.On("ConfirmAccount", mock.Anything, &cognitoclient.UserConfirmation{Email: "new@example.com", Code: "000000"}).
		Return(idpError("CodeMismatchException")).Once()
	require.Equal(t, apierror.IDPConfirmCodeMismatchError, svc.ConfirmSignup(ctx, &ConfirmSignupRequest{Email: "new@example.com", Code: "000000"}))

	idp.On("ConfirmAccount", mock.Anything, &cognitoclient.UserConfirmation{Email: "new@example.com", Code: "123456"}).Return(nil).Once()
	require.Nil(t, svc.ConfirmSignup(ctx, &ConfirmSignupRequest{Email: "new@example.com", Code: "123456"}))

	user, err := f.users.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.True(t, user.EmailVerified)

	require.Equal(t, apierror.UserAlreadyConfirmedError, svc.ConfirmSignup(ctx, &ConfirmSignupRequest{Email: "new@example.com", Code: "123456"}))
	idp.AssertExpectations(t)
}

func TestGetUser_ContactVisibility(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewUserService(f.users, f.validate, &identityMock{})
	ctx := context.Background()
	me := f.user(t, entity.RoleClient)
	agent := f.user(t, entity.RoleAgent)
	admin := f.user(t, entity.RoleAdmin)

	self, apierr := svc.GetUser(ctx, "@me", me)
	require.Nil(t, apierr)
	require.Equal(t, me.UserID, self.ID)
	require.Equal(t, me.Sub+"@example.com", self.Email)

	public, apierr := svc.GetUser(ctx, itoa(agent.UserID), me)
	require.Nil(t, apierr)
	require.Empty(t, public.Email)
	require.Equal(t, "Jane D.", public.DisplayName)

	private, apierr := svc.GetUser(ctx, itoa(agent.UserID), admin)
	require.Nil(t, apierr)
	require.NotEmpty(t, private.Email)

	_, apierr = svc.GetUser(ctx, "abc", me)
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())

	_, apierr = svc.GetUser(ctx, "999", me)
	require.Equal(t, apierror.NotFoundError, apierr)
}

func TestAdminOnlyUserOperations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := NewUserService(f.users, f.validate, &identityMock{})
	ctx := context.Background()
	client := f.user(t, entity.RoleClient)
	admin := f.user(t, entity.RoleAdmin)

	_, apierr := svc.GetUsers(ctx, client)
	require.Equal(t, apierror.ForbiddenError, apierr)

	users, apierr := svc.GetUsers(ctx, admin)
	require.Nil(t, apierr)
	require.Len(t, users, 2)

	_, apierr = svc.UpdateRole(ctx, client, client.UserID, &UpdateRoleRequest{Role: "admin"})
	require.Equal(t, apierror.ForbiddenError, apierr)

	promoted, apierr := svc.UpdateRole(ctx, admin, client.UserID, &UpdateRoleRequest{Role: "agent"})
	require.Nil(t, apierr)
	require.Equal(t, "agent", promoted.Role)

	_, apierr = svc.UpdateRole(ctx, admin, client.UserID, &UpdateRoleRequest{Role: "owner"})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())
}
