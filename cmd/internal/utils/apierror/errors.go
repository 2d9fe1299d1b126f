package apierror

import "net/http"

// Generic
var (
	InternalServerError = New(http.StatusInternalServerError, KindPersistence, "An internal error occurred")
	NotFoundError       = NotFound("Resource not found")
	MalformedBodyError  = Validation("Request body is malformed")
	ForbiddenError      = Forbidden("You are not allowed to perform this action")
)

// Authentication
var (
	MissingAuthTokenError = New(http.StatusUnauthorized, KindAuthentication, "Missing bearer token")
	InvalidAuthTokenError = New(http.StatusUnauthorized, KindAuthentication, "Invalid or expired token")
	UnknownUserError      = New(http.StatusUnauthorized, KindAuthentication, "Token does not belong to a registered user")
)

// Identity provider
var (
	UserAlreadyExistsError      = Conflict("A user with this email already exists")
	UserAlreadyConfirmedError   = Conflict("User is already confirmed")
	IDPInvalidPasswordError     = Validation("Password does not meet the policy")
	IDPExistingEmailError       = Conflict("Email is already registered")
	IDPUserNotFoundError        = NotFound("User not found")
	IDPUserNotConfirmedError    = Forbidden("User has not confirmed the account")
	IDPCredentialsMismatchError = New(http.StatusUnauthorized, KindAuthentication, "Email or password is incorrect")
	IDPConfirmCodeMismatchError = Validation("Confirmation code does not match")
	IDPConfirmCodeExpiredError  = Validation("Confirmation code has expired")
)

// Scheduling
var (
	SlotUnavailableError    = Conflict("slot no longer available")
	AppointmentNotScheduled = Conflict("appointment is not scheduled")
	ManualBlockOnlyError    = Conflict("blocks created by a booking are removed by cancelling the appointment")
	InvalidTimeRangeError   = Validation("end time must be after start time")
)

// Marketplace
var (
	PropertyNotAvailableError  = Conflict("property is not available")
	AuctionEndsAtError         = Validation("ends_at must lie in the future and within 90 days")
	AuctionAlreadyRunningError = Conflict("property already has an active auction")
	AuctionNotActiveError      = Conflict("auction not active")
	BidTooLowError             = Conflict("bid too low")
	BidContentionError         = Conflict("auction price changed, please retry")
	VerificationRequiredError  = Forbidden("verification required")
	PurchaseNotPendingError    = Conflict("purchase is not pending")
	PaymentVerificationFailed  = Conflict("payment verification failed")
	SelfMessageError           = Validation("cannot send a message to yourself")
)
