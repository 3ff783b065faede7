package cloud

// Wire types for the vendor cloud API. The listing and state read share one
// endpoint (GET /setup); command execution is a JSON POST against
// /exec/apply carrying the ordered command list for one device.

// Command is one (name, parameters) pair inside a batch.
type Command struct {
	Name       string `json:"name"`
	Parameters []any  `json:"parameters"`
}

// deviceAction is the per-device body of an /exec/apply call.
type deviceAction struct {
	DeviceURL string    `json:"deviceURL"`
	Commands  []Command `json:"commands"`
}

type execRequest struct {
	Label   string         `json:"label"`
	Actions []deviceAction `json:"actions"`
}

type execResponse struct {
	ExecID string `json:"execId"`
}

// setupResponse is the raw device collection returned by GET /setup.
type setupResponse struct {
	Devices []setupDevice `json:"devices"`
}

type setupDevice struct {
	DeviceURL  string           `json:"deviceURL"`
	Label      string           `json:"label"`
	Widget     string           `json:"widget"`
	Definition setupDefinition  `json:"definition"`
	States     []rawDeviceState `json:"states"`
}

type setupDefinition struct {
	Commands []setupCommand `json:"commands"`
}

type setupCommand struct {
	CommandName string `json:"commandName"`
}

// rawDeviceState is one vendor state entry. Values arrive as JSON numbers or
// numeric strings depending on the cluster, so the type stays loose here and
// is normalized by the resolver.
type rawDeviceState struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}
