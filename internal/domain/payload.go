package domain

import "encoding/json"

// SendPayload is the provider wire payload for one outbound message
type SendPayload struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *TextPayload     `json:"text,omitempty"`
	Template         *TemplatePayload `json:"template,omitempty"`
}

// TextPayload carries a literal message body
type TextPayload struct {
	Body string `json:"body"`
}

// TemplatePayload references an approved template by name and language
type TemplatePayload struct {
	Name     string           `json:"name"`
	Language TemplateLanguage `json:"language"`
}

// TemplateLanguage is the template language selector
type TemplateLanguage struct {
	Code string `json:"code"`
}

// Marshal serializes the payload for the provider API
func (p SendPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// BuildSendPayload maps the campaign's message variant to the provider
// payload deterministically. Unsupported kinds are a validation error.
func BuildSendPayload(campaign *Campaign, toPhone string) (SendPayload, error) {
	payload := SendPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               toPhone,
		Type:             string(campaign.MessageKind),
	}

	switch campaign.MessageKind {
	case MessageKindText:
		payload.Text = &TextPayload{Body: campaign.MessageBody}
	case MessageKindTemplate:
		if campaign.TemplateName == "" {
			return SendPayload{}, NewValidationError("campaign has no template reference")
		}
		language := campaign.TemplateLanguage
		if language == "" {
			language = "en_US"
		}
		payload.Template = &TemplatePayload{
			Name:     campaign.TemplateName,
			Language: TemplateLanguage{Code: language},
		}
	default:
		return SendPayload{}, NewValidationError("unsupported message kind: " + string(campaign.MessageKind))
	}

	return payload, nil
}

// OutboundBody returns the message body recorded on the Message row for
// the campaign's variant: the literal body for text, the template name
// for template sends.
func (c *Campaign) OutboundBody() string {
	if c.MessageKind == MessageKindTemplate {
		return c.TemplateName
	}
	return c.MessageBody
}
