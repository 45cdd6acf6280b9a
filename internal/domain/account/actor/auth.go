package actor

import (
	"errors"

	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	eventsentities "github.com/Conte777/telegram-files/internal/domain/events/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

const (
	systemLanguageCode = "en"
	loadChatsLimit     = 100
)

func (a *Actor) onAuthorizationState(state tdapi.AuthorizationState) {
	if state == nil {
		return
	}

	a.deps.Metrics.RecordAuthorizationState(state.Type())
	a.update(func(s *snapshot) { s.lastState = state })

	switch state.(type) {
	case *tdapi.AuthorizationStateWaitTdlibParameters:
		a.sendParameters()

	case *tdapi.AuthorizationStateWaitPhoneNumber,
		*tdapi.AuthorizationStateWaitCode,
		*tdapi.AuthorizationStateWaitPassword,
		*tdapi.AuthorizationStateWaitRegistration,
		*tdapi.AuthorizationStateWaitEmailAddress,
		*tdapi.AuthorizationStateWaitEmailCode,
		*tdapi.AuthorizationStateWaitOtherDeviceConfirmation:
		a.logger.Info().Str("state", state.Type()).Msg("Waiting for authorization input")
		a.publish(eventsentities.TypeAuthorization, "", tdapi.Typed{Object: state})

	case *tdapi.AuthorizationStateReady:
		a.onReady(state)

	case *tdapi.AuthorizationStateLoggingOut, *tdapi.AuthorizationStateClosing:
		a.logger.Info().Str("state", state.Type()).Msg("Account is shutting down")

	case *tdapi.AuthorizationStateClosed:
		a.logger.Info().Msg("Account session closed")
		a.update(func(s *snapshot) { s.authorized = false })
		if a.onClosed != nil {
			go a.onClosed(a)
		}

	default:
		a.logger.Warn().Str("state", state.Type()).Msg("Unknown authorization state")
	}
}

func (a *Actor) sendParameters() {
	cfg := a.deps.Telegram
	lang := cfg.LangCode
	if lang == "" {
		lang = systemLanguageCode
	}

	req := &tdapi.SetTdlibParameters{
		DatabaseDirectory:   a.rootPath,
		UseFileDatabase:     true,
		UseChatInfoDatabase: true,
		UseMessageDatabase:  true,
		APIID:               cfg.APIID,
		APIHash:             cfg.APIHash,
		SystemLanguageCode:  lang,
		DeviceModel:         cfg.DeviceModel,
		ApplicationVersion:  cfg.AppVersion,
	}

	future := send[*tdapi.Ok](a.gateway, req)
	go func() {
		if _, err := future.Await(a.ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to set backend parameters")
			a.publish(eventsentities.TypeError, "", errorPayload(err))
		}
	}()
}

func (a *Actor) onReady(state tdapi.AuthorizationState) {
	a.update(func(s *snapshot) { s.authorized = true })
	a.logger.Info().Msg("Account authorized")
	a.publish(eventsentities.TypeAuthorization, "", tdapi.Typed{Object: state})

	if a.snap().account != nil || a.provisioning {
		return
	}
	a.provisioning = true

	future := Send[*tdapi.User](a.gateway, &tdapi.GetMe{})
	go a.provision(future)
}

// provision stores the profile of a first login and loads its chat list
func (a *Actor) provision(future *Future[*tdapi.User]) {
	finish := func(account *entities.Account) {
		a.post(func() {
			a.provisioning = false
			if account != nil {
				a.update(func(s *snapshot) { s.account = account })
			}
		})
	}

	me, err := future.Await(a.ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to fetch profile of new account")
		a.publish(eventsentities.TypeError, "", errorPayload(err))
		finish(nil)
		return
	}

	account := &entities.Account{ID: me.ID, FirstName: me.FirstName, RootPath: a.rootPath}
	if err := a.deps.Accounts.Create(a.ctx, account); err != nil {
		if !errors.Is(err, accounterrors.ErrAccountAlreadyExists) {
			a.logger.Error().Err(err).Int64("telegram_id", me.ID).Msg("Failed to store new account")
			a.publish(eventsentities.TypeError, "", errorPayload(err))
			finish(nil)
			return
		}

		stored, getErr := a.deps.Accounts.GetByID(a.ctx, me.ID)
		if getErr != nil {
			a.logger.Error().Err(getErr).Int64("telegram_id", me.ID).Msg("Failed to load existing account")
			finish(nil)
			return
		}
		account = stored
		a.logger.Warn().Int64("telegram_id", me.ID).Str("root_path", stored.RootPath).Msg("Account already stored under another root")
	}

	a.logger.Info().Int64("telegram_id", account.ID).Msg("Account stored")
	finish(account)

	loaded := Send[tdapi.Object](a.gateway, &tdapi.LoadChats{Limit: loadChatsLimit})
	if _, err := loaded.Await(a.ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to load chats")
	}
}
