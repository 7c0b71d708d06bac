package email

import (
	_ "embed"
	"html/template"
	"strings"
)

var (
	//go:embed delivery_failure.html
	deliveryFailureHTML     string
	deliveryFailureTemplate = template.Must(template.New("delivery_failure.html").Parse(deliveryFailureHTML))
)

func mustFillTemplate(tmpl *template.Template, values any) string {
	buf := new(strings.Builder)
	err := tmpl.Execute(buf, values)
	if err != nil {
		return ""
	}
	return buf.String()
}

type DeliveryFailureFormat struct {
	URL   string
	Error string
}

func (ef *DeliveryFailureFormat) Subject() string {
	return "Farcaster Notification Error"
}

func (ef *DeliveryFailureFormat) Body() string {
	return mustFillTemplate(deliveryFailureTemplate, ef)
}
