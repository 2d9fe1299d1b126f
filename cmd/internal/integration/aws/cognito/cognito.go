package cognitoclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

// ErrInvalidToken is returned by VerifyToken for tokens the provider rejects.
var ErrInvalidToken = errors.New("cognito: invalid access token")

// CognitoInterface is the identity provider contract. Failures are reported
// as smithy.APIError values carrying Cognito exception codes.
type CognitoInterface interface {
	SignUp(ctx context.Context, user *User) (string, error)
	ConfirmAccount(ctx context.Context, confirmation *UserConfirmation) error
	SignIn(ctx context.Context, login *UserLogin) (*AuthCreate, error)
	AdminDeleteUser(ctx context.Context, email string) error
	VerifyToken(ctx context.Context, accessToken string) (string, error)
}

type User struct {
	Email    string
	Password string
}

type UserLogin struct {
	Email    string
	Password string
}

type UserConfirmation struct {
	Email string
	Code  string
}

type AuthCreate struct {
	AccessToken string
	IDToken     string
	ExpiresIn   int32
}

// identityAPI is the subset of the Cognito SDK client used here.
type identityAPI interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	AdminDeleteUser(ctx context.Context, in *cip.AdminDeleteUserInput, optFns ...func(*cip.Options)) (*cip.AdminDeleteUserOutput, error)
	GetUser(ctx context.Context, in *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
}

type Client struct {
	api        identityAPI
	userPoolID string
	clientID   string
}

type Settings struct {
	Region     string
	UserPoolID string
	ClientID   string
}

func InitCognitoClient(ctx context.Context, s Settings) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.Region))
	if err != nil {
		return nil, fmt.Errorf("cognito: load aws config: %w", err)
	}
	return newClient(cip.NewFromConfig(awsCfg), s), nil
}

func newClient(api identityAPI, s Settings) *Client {
	return &Client{api: api, userPoolID: s.UserPoolID, clientID: s.ClientID}
}

// SignUp registers the user and returns the Cognito subject.
func (c *Client) SignUp(ctx context.Context, user *User) (string, error) {
	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(user.Email),
		Password: aws.String(user.Password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(user.Email)},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.UserSub), nil
}

func (c *Client) ConfirmAccount(ctx context.Context, confirmation *UserConfirmation) error {
	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(confirmation.Email),
		ConfirmationCode: aws.String(confirmation.Code),
	})
	return err
}

func (c *Client) SignIn(ctx context.Context, login *UserLogin) (*AuthCreate, error) {
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": login.Email,
			"PASSWORD": login.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	// A challenge (MFA, new password) leaves AuthenticationResult empty.
	if out.AuthenticationResult == nil {
		return nil, fmt.Errorf("cognito: sign in requires challenge %s", out.ChallengeName)
	}

	res := out.AuthenticationResult
	return &AuthCreate{
		AccessToken: aws.ToString(res.AccessToken),
		IDToken:     aws.ToString(res.IdToken),
		ExpiresIn:   res.ExpiresIn,
	}, nil
}

func (c *Client) AdminDeleteUser(ctx context.Context, email string) error {
	_, err := c.api.AdminDeleteUser(ctx, &cip.AdminDeleteUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
	})
	return err
}

// VerifyToken asks Cognito who owns the access token and returns its subject.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (string, error) {
	out, err := c.api.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotAuthorizedException" {
			return "", ErrInvalidToken
		}
		return "", err
	}

	for _, attr := range out.UserAttributes {
		if aws.ToString(attr.Name) == "sub" {
			return aws.ToString(attr.Value), nil
		}
	}
	return "", ErrInvalidToken
}
