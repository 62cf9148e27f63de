package user

import (
	"net/mail"

	"github.com/trezcool/campus/core"
)

func (svc *Service) welcomeMessage(usr User) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to campus",
		TemplateName: "welcome",
		TemplateData: map[string]string{
			"Name":  usr.Name,
			"Role":  usr.Role.Name(),
			"Email": usr.Email,
		},
	}
}
