package webhook

type EventKind int

const (
	EventUnknown EventKind = iota
	EventFrameAdded
	EventFrameRemoved
	EventNotificationsDisabled
	EventNotificationsEnabled
)

var eventNames = map[EventKind]string{
	EventFrameAdded:            "frame_added",
	EventFrameRemoved:          "frame_removed",
	EventNotificationsDisabled: "notifications_disabled",
	EventNotificationsEnabled:  "notifications_enabled",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a parsed event name. Unrecognised names keep the raw value.
type Event struct {
	Kind EventKind
	Raw  string
}

func ParseEvent(name string) Event {
	for kind, known := range eventNames {
		if known == name {
			return Event{kind, name}
		}
	}
	return Event{EventUnknown, name}
}

// RequiresDetails is true for events that subscribe the account.
func (e Event) RequiresDetails() bool {
	return e.Kind == EventFrameAdded || e.Kind == EventNotificationsEnabled
}

type NotificationDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

func (d *NotificationDetails) Valid() bool {
	return d != nil && d.URL != "" && d.Token != ""
}

type Payload struct {
	Event               string               `json:"event"`
	NotificationDetails *NotificationDetails `json:"notificationDetails,omitempty"`
}
