package actor

import (
	"encoding/json"
	"sort"

	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

type method struct {
	newRequest func() tdapi.Function
	// preAuth methods drive the login flow and run before authorization
	preAuth bool
}

var methods = map[string]method{
	"setAuthenticationPhoneNumber": {func() tdapi.Function { return &tdapi.SetAuthenticationPhoneNumber{} }, true},
	"resendAuthenticationCode":     {func() tdapi.Function { return &tdapi.ResendAuthenticationCode{} }, true},
	"checkAuthenticationCode":      {func() tdapi.Function { return &tdapi.CheckAuthenticationCode{} }, true},
	"checkAuthenticationPassword":  {func() tdapi.Function { return &tdapi.CheckAuthenticationPassword{} }, true},
	"registerUser":                 {func() tdapi.Function { return &tdapi.RegisterUser{} }, true},
	"requestQrCodeAuthentication":  {func() tdapi.Function { return &tdapi.RequestQrCodeAuthentication{} }, true},

	"logOut":                 {func() tdapi.Function { return &tdapi.LogOut{} }, false},
	"getMe":                  {func() tdapi.Function { return &tdapi.GetMe{} }, false},
	"loadChats":              {func() tdapi.Function { return &tdapi.LoadChats{} }, false},
	"getChats":               {func() tdapi.Function { return &tdapi.GetChats{} }, false},
	"getChat":                {func() tdapi.Function { return &tdapi.GetChat{} }, false},
	"searchChatsOnServer":    {func() tdapi.Function { return &tdapi.SearchChatsOnServer{} }, false},
	"getMessage":             {func() tdapi.Function { return &tdapi.GetMessage{} }, false},
	"searchChatMessages":     {func() tdapi.Function { return &tdapi.SearchChatMessages{} }, false},
	"getChatMessageCount":    {func() tdapi.Function { return &tdapi.GetChatMessageCount{} }, false},
	"getFile":                {func() tdapi.Function { return &tdapi.GetFile{} }, false},
	"downloadFile":           {func() tdapi.Function { return &tdapi.DownloadFile{} }, false},
	"addFileToDownloads":     {func() tdapi.Function { return &tdapi.AddFileToDownloads{} }, false},
	"cancelDownloadFile":     {func() tdapi.Function { return &tdapi.CancelDownloadFile{} }, false},
	"toggleDownloadIsPaused": {func() tdapi.Function { return &tdapi.ToggleDownloadIsPaused{} }, false},
}

// Methods lists the names accepted by RunRawCommand
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildRequest resolves a method name and decodes params into its request
func buildRequest(name string, params []byte) (tdapi.Function, bool, error) {
	m, ok := methods[name]
	if !ok {
		return nil, false, accounterrors.NewUnsupportedMethodError(name)
	}

	req := m.newRequest()
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, req); err != nil {
			return nil, false, pkgerrors.NewValidationErrorf("invalid params for %s: %v", name, err)
		}
	}

	return req, m.preAuth, nil
}
