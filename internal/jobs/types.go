package jobs

const (
	TaskWarmPort = "warm:port_optical"
	TaskWarmAll  = "warm:all_optical"
)

type WarmPortPayload struct {
	PortID int64 `json:"port_id"`
}

type WarmAllPayload struct {
	DeviceID int64 `json:"device_id,omitempty"`
}
