package tdapi

// AuthorizationState is the variant describing where the login flow is.
type AuthorizationState interface {
	Object
	authorizationState()
}

type AuthorizationStateWaitTdlibParameters struct{}

type AuthorizationStateWaitPhoneNumber struct{}

type AuthorizationStateWaitCode struct {
	CodeInfo *AuthenticationCodeInfo `json:"code_info,omitempty"`
}

type AuthorizationStateWaitPassword struct {
	PasswordHint                string `json:"password_hint"`
	HasRecoveryEmailAddress     bool   `json:"has_recovery_email_address"`
	RecoveryEmailAddressPattern string `json:"recovery_email_address_pattern,omitempty"`
}

type AuthorizationStateWaitRegistration struct {
	TermsOfService string `json:"terms_of_service,omitempty"`
}

type AuthorizationStateWaitEmailAddress struct {
	AllowAppleID  bool `json:"allow_apple_id"`
	AllowGoogleID bool `json:"allow_google_id"`
}

type AuthorizationStateWaitEmailCode struct {
	EmailAddressPattern string `json:"email_address_pattern,omitempty"`
}

// AuthorizationStateWaitOtherDeviceConfirmation carries the login link to be
// opened by an already authorized device. QRCode is a base64 PNG of Link.
type AuthorizationStateWaitOtherDeviceConfirmation struct {
	Link   string `json:"link"`
	QRCode string `json:"qr_code,omitempty"`
}

type AuthorizationStateReady struct{}

type AuthorizationStateLoggingOut struct{}

type AuthorizationStateClosing struct{}

type AuthorizationStateClosed struct{}

// AuthenticationCodeInfo describes a sent login code.
type AuthenticationCodeInfo struct {
	PhoneNumber string `json:"phone_number"`
	CodeType    string `json:"type"`
	Timeout     int    `json:"timeout"`
}

func (*AuthorizationStateWaitTdlibParameters) Type() string {
	return "authorizationStateWaitTdlibParameters"
}
func (*AuthorizationStateWaitPhoneNumber) Type() string { return "authorizationStateWaitPhoneNumber" }
func (*AuthorizationStateWaitCode) Type() string        { return "authorizationStateWaitCode" }
func (*AuthorizationStateWaitPassword) Type() string    { return "authorizationStateWaitPassword" }
func (*AuthorizationStateWaitRegistration) Type() string {
	return "authorizationStateWaitRegistration"
}
func (*AuthorizationStateWaitEmailAddress) Type() string {
	return "authorizationStateWaitEmailAddress"
}
func (*AuthorizationStateWaitEmailCode) Type() string { return "authorizationStateWaitEmailCode" }
func (*AuthorizationStateWaitOtherDeviceConfirmation) Type() string {
	return "authorizationStateWaitOtherDeviceConfirmation"
}
func (*AuthorizationStateReady) Type() string      { return "authorizationStateReady" }
func (*AuthorizationStateLoggingOut) Type() string { return "authorizationStateLoggingOut" }
func (*AuthorizationStateClosing) Type() string    { return "authorizationStateClosing" }
func (*AuthorizationStateClosed) Type() string     { return "authorizationStateClosed" }

func (*AuthorizationStateWaitTdlibParameters) authorizationState()         {}
func (*AuthorizationStateWaitPhoneNumber) authorizationState()             {}
func (*AuthorizationStateWaitCode) authorizationState()                    {}
func (*AuthorizationStateWaitPassword) authorizationState()                {}
func (*AuthorizationStateWaitRegistration) authorizationState()            {}
func (*AuthorizationStateWaitEmailAddress) authorizationState()            {}
func (*AuthorizationStateWaitEmailCode) authorizationState()               {}
func (*AuthorizationStateWaitOtherDeviceConfirmation) authorizationState() {}
func (*AuthorizationStateReady) authorizationState()                       {}
func (*AuthorizationStateLoggingOut) authorizationState()                  {}
func (*AuthorizationStateClosing) authorizationState()                     {}
func (*AuthorizationStateClosed) authorizationState()                      {}

func (*AuthenticationCodeInfo) Type() string { return "authenticationCodeInfo" }

// SetTdlibParameters configures the backend for an account root.
type SetTdlibParameters struct {
	DatabaseDirectory   string `json:"database_directory"`
	FilesDirectory      string `json:"files_directory,omitempty"`
	UseFileDatabase     bool   `json:"use_file_database"`
	UseChatInfoDatabase bool   `json:"use_chat_info_database"`
	UseMessageDatabase  bool   `json:"use_message_database"`
	APIID               int    `json:"api_id"`
	APIHash             string `json:"api_hash"`
	SystemLanguageCode  string `json:"system_language_code"`
	DeviceModel         string `json:"device_model"`
	SystemVersion       string `json:"system_version,omitempty"`
	ApplicationVersion  string `json:"application_version"`
}

type SetAuthenticationPhoneNumber struct {
	PhoneNumber string `json:"phone_number"`
}

type ResendAuthenticationCode struct{}

type CheckAuthenticationCode struct {
	Code string `json:"code"`
}

type CheckAuthenticationPassword struct {
	Password string `json:"password"`
}

type RegisterUser struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RequestQrCodeAuthentication struct{}

type LogOut struct{}

type Close struct{}

func (*SetTdlibParameters) Type() string           { return "setTdlibParameters" }
func (*SetAuthenticationPhoneNumber) Type() string { return "setAuthenticationPhoneNumber" }
func (*ResendAuthenticationCode) Type() string     { return "resendAuthenticationCode" }
func (*CheckAuthenticationCode) Type() string      { return "checkAuthenticationCode" }
func (*CheckAuthenticationPassword) Type() string  { return "checkAuthenticationPassword" }
func (*RegisterUser) Type() string                 { return "registerUser" }
func (*RequestQrCodeAuthentication) Type() string  { return "requestQrCodeAuthentication" }
func (*LogOut) Type() string                       { return "logOut" }
func (*Close) Type() string                        { return "close" }

func (*SetTdlibParameters) function()           {}
func (*SetAuthenticationPhoneNumber) function() {}
func (*ResendAuthenticationCode) function()     {}
func (*CheckAuthenticationCode) function()      {}
func (*CheckAuthenticationPassword) function()  {}
func (*RegisterUser) function()                 {}
func (*RequestQrCodeAuthentication) function()  {}
func (*LogOut) function()                       {}
func (*Close) function()                        {}
