package telegram

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"rsc.io/qr"

	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
	"github.com/Conte777/telegram-files/internal/utils"
)

// qrLoginTimeout bounds how long a login link waits to be confirmed
const qrLoginTimeout = 5 * time.Minute

func (c *Client) setParameters(r *tdapi.SetTdlibParameters) (*tdapi.Ok, error) {
	if r.APIID <= 0 || r.APIHash == "" {
		return nil, tdapi.NewError(400, "Valid api_id and api_hash must be provided")
	}

	params := *r
	if params.DatabaseDirectory == "" {
		params.DatabaseDirectory = c.rootPath
	}
	filesDir := params.FilesDirectory
	if filesDir == "" {
		filesDir = filepath.Join(params.DatabaseDirectory, filesDirName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.params != nil {
		return nil, tdapi.NewError(400, "Unexpected setTdlibParameters")
	}
	if c.ctx.Err() != nil {
		return nil, errAborted()
	}

	storage, err := NewFileSessionStorage(params.DatabaseDirectory)
	if err != nil {
		return nil, tdapi.NewError(400, "Can't open database directory: %s", err)
	}
	c.files.setDir(filesDir)

	c.params = &params
	c.storage = storage
	c.connected = make(chan struct{})
	c.runDone = make(chan struct{})
	go c.run(&params, storage)

	c.logger.Info().Str("database_directory", params.DatabaseDirectory).Msg("Backend parameters set")
	return &tdapi.Ok{}, nil
}

func (c *Client) setPhoneNumber(ctx context.Context, r *tdapi.SetAuthenticationPhoneNumber) (*tdapi.Ok, error) {
	switch c.currentState().(type) {
	case *tdapi.AuthorizationStateWaitPhoneNumber,
		*tdapi.AuthorizationStateWaitCode,
		*tdapi.AuthorizationStateWaitOtherDeviceConfirmation:
	default:
		return nil, tdapi.NewError(400, "Phone number unexpected")
	}

	b, err := c.waitBackend(ctx)
	if err != nil {
		return nil, err
	}
	c.stopQR()

	sent, err := b.client.Auth().SendCode(ctx, r.PhoneNumber, auth.SendCodeOptions{})
	if err != nil {
		return nil, err
	}
	c.onCodeSent(r.PhoneNumber, sent)
	return &tdapi.Ok{}, nil
}

func (c *Client) onCodeSent(phone string, sent tg.AuthSentCodeClass) {
	switch s := sent.(type) {
	case *tg.AuthSentCode:
		c.mu.Lock()
		c.phone = phone
		c.codeHash = s.PhoneCodeHash
		c.mu.Unlock()

		timeout, _ := s.GetTimeout()
		info := &tdapi.AuthenticationCodeInfo{
			PhoneNumber: phone,
			CodeType:    codeType(s.Type),
			Timeout:     timeout,
		}
		c.logger.Info().
			Str("phone", utils.MaskPhoneNumber(phone)).
			Str("code_type", info.CodeType).
			Msg("Authentication code sent")
		c.setState(&tdapi.AuthorizationStateWaitCode{CodeInfo: info})

	case *tg.AuthSentCodeSuccess:
		c.authorized()
	}
}

func codeType(t tg.AuthSentCodeTypeClass) string {
	switch t.(type) {
	case *tg.AuthSentCodeTypeApp:
		return "authenticationCodeTypeTelegramMessage"
	case *tg.AuthSentCodeTypeSMS:
		return "authenticationCodeTypeSms"
	case *tg.AuthSentCodeTypeCall:
		return "authenticationCodeTypeCall"
	case *tg.AuthSentCodeTypeFlashCall:
		return "authenticationCodeTypeFlashCall"
	case *tg.AuthSentCodeTypeMissedCall:
		return "authenticationCodeTypeMissedCall"
	case *tg.AuthSentCodeTypeFragmentSMS:
		return "authenticationCodeTypeFragment"
	case *tg.AuthSentCodeTypeEmailCode:
		return "authenticationCodeTypeEmail"
	}
	return "authenticationCodeTypeUnknown"
}

// pendingCode returns the phone and hash of the code being confirmed
func (c *Client) pendingCode() (phone, hash string, err error) {
	if _, ok := c.currentState().(*tdapi.AuthorizationStateWaitCode); !ok {
		return "", "", tdapi.NewError(400, "Authentication code unexpected")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phone, c.codeHash, nil
}

func (c *Client) resendCode(ctx context.Context) (*tdapi.Ok, error) {
	phone, hash, err := c.pendingCode()
	if err != nil {
		return nil, err
	}
	b, err := c.waitBackend(ctx)
	if err != nil {
		return nil, err
	}

	sent, err := b.client.API().AuthResendCode(ctx, &tg.AuthResendCodeRequest{
		PhoneNumber:   phone,
		PhoneCodeHash: hash,
	})
	if err != nil {
		return nil, err
	}
	c.onCodeSent(phone, sent)
	return &tdapi.Ok{}, nil
}

func (c *Client) checkCode(ctx context.Context, r *tdapi.CheckAuthenticationCode) (*tdapi.Ok, error) {
	phone, hash, err := c.pendingCode()
	if err != nil {
		return nil, err
	}
	b, err := c.waitBackend(ctx)
	if err != nil {
		return nil, err
	}

	_, err = b.client.Auth().SignIn(ctx, phone, r.Code, hash)

	var signUp *auth.SignUpRequired
	switch {
	case err == nil:
		c.authorized()
	case errors.Is(err, auth.ErrPasswordAuthNeeded):
		return c.waitPassword(ctx, b)
	case errors.As(err, &signUp):
		c.setState(&tdapi.AuthorizationStateWaitRegistration{TermsOfService: signUp.TermsOfService.Text})
	default:
		return nil, err
	}
	return &tdapi.Ok{}, nil
}

func (c *Client) waitPassword(ctx context.Context, b *backend) (*tdapi.Ok, error) {
	pwd, err := b.client.API().AccountGetPassword(ctx)
	if err != nil {
		return nil, err
	}

	state := &tdapi.AuthorizationStateWaitPassword{HasRecoveryEmailAddress: pwd.HasRecovery}
	state.PasswordHint, _ = pwd.GetHint()
	state.RecoveryEmailAddressPattern, _ = pwd.GetEmailUnconfirmedPattern()
	c.setState(state)
	return &tdapi.Ok{}, nil
}

func (c *Client) checkPassword(ctx context.Context, r *tdapi.CheckAuthenticationPassword) (*tdapi.Ok, error) {
	if _, ok := c.currentState().(*tdapi.AuthorizationStateWaitPassword); !ok {
		return nil, tdapi.NewError(400, "Password unexpected")
	}
	b, err := c.waitBackend(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := b.client.Auth().Password(ctx, r.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordInvalid) {
			return nil, tdapi.NewError(400, "PASSWORD_HASH_INVALID")
		}
		return nil, err
	}
	c.authorized()
	return &tdapi.Ok{}, nil
}

func (c *Client) registerUser(ctx context.Context, r *tdapi.RegisterUser) (*tdapi.Ok, error) {
	if _, ok := c.currentState().(*tdapi.AuthorizationStateWaitRegistration); !ok {
		return nil, tdapi.NewError(400, "Registration unexpected")
	}
	b, err := c.waitBackend(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	phone, hash := c.phone, c.codeHash
	c.mu.Unlock()

	_, err = b.client.Auth().SignUp(ctx, auth.SignUp{
		PhoneNumber:   phone,
		PhoneCodeHash: hash,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
	})
	if err != nil {
		return nil, err
	}
	c.authorized()
	return &tdapi.Ok{}, nil
}

// requestQRCode starts a login link flow. The result comes back as
// WaitOtherDeviceConfirmation and then Ready or WaitPassword.
func (c *Client) requestQRCode(ctx context.Context) (*tdapi.Ok, error) {
	switch c.currentState().(type) {
	case *tdapi.AuthorizationStateWaitPhoneNumber,
		*tdapi.AuthorizationStateWaitCode,
		*tdapi.AuthorizationStateWaitOtherDeviceConfirmation:
	default:
		return nil, tdapi.NewError(400, "QR code authentication unexpected")
	}

	b, err := c.waitBackend(ctx)
	if err != nil {
		return nil, err
	}
	c.stopQR()

	qrCtx, cancel := context.WithTimeout(c.ctx, qrLoginTimeout)
	c.mu.Lock()
	c.qrCancel = cancel
	c.mu.Unlock()

	go c.runQR(qrCtx, cancel, b)
	return &tdapi.Ok{}, nil
}

func (c *Client) runQR(ctx context.Context, cancel context.CancelFunc, b *backend) {
	defer cancel()

	show := func(ctx context.Context, token qrlogin.Token) error {
		code, err := qr.Encode(token.URL(), qr.L)
		if err != nil {
			return fmt.Errorf("failed to encode QR code: %w", err)
		}
		c.setState(&tdapi.AuthorizationStateWaitOtherDeviceConfirmation{
			Link:   token.URL(),
			QRCode: base64.StdEncoding.EncodeToString(code.PNG()),
		})
		c.logger.Debug().Time("expires", token.Expires()).Msg("Login link exported")
		return nil
	}

	_, err := b.client.QR().Auth(ctx, b.loginToken, show)
	switch {
	case err == nil:
		c.authorized()
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		c.logger.Info().Msg("Login link expired")
		c.setState(&tdapi.AuthorizationStateWaitPhoneNumber{})
	case ctx.Err() != nil:
		// replaced by another login attempt or closed
	case tgerr.Is(err, "SESSION_PASSWORD_NEEDED"):
		waitCtx, waitCancel := context.WithTimeout(c.ctx, requestTimeout)
		defer waitCancel()
		if _, err := c.waitPassword(waitCtx, b); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to get password info")
			c.setState(&tdapi.AuthorizationStateWaitPhoneNumber{})
		}
	default:
		c.logger.Warn().Err(err).Msg("QR login failed")
		c.setState(&tdapi.AuthorizationStateWaitPhoneNumber{})
	}
}

func (c *Client) stopQR() {
	c.mu.Lock()
	cancel := c.qrCancel
	c.qrCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Client) authorized() {
	c.setState(&tdapi.AuthorizationStateReady{})
	c.logger.Info().Msg("Authorized")
}

// logOut ends the session on the server and drops it locally
func (c *Client) logOut(ctx context.Context) (*tdapi.Ok, error) {
	c.mu.Lock()
	started := c.params != nil
	c.mu.Unlock()
	if !started {
		return nil, errUnauthorized()
	}

	c.stopQR()
	c.setState(&tdapi.AuthorizationStateLoggingOut{})

	if c.isAuthorizedSession(ctx) {
		b, err := c.waitBackend(ctx)
		if err == nil {
			_, err = b.client.API().AuthLogOut(ctx)
		}
		if err != nil {
			c.logger.Warn().Err(err).Msg("Server logout failed")
		}
	}

	c.dropSession()
	c.shutdown()
	return &tdapi.Ok{}, nil
}

// isAuthorizedSession reports whether the connection holds a logged in session
func (c *Client) isAuthorizedSession(ctx context.Context) bool {
	c.mu.Lock()
	b := c.backend
	c.mu.Unlock()
	if b == nil {
		return false
	}
	status, err := b.client.Auth().Status(ctx)
	return err == nil && status.Authorized
}
