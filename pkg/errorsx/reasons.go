package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonChannelOpen  ReasonCode = "channel_open"
	ReasonChannelStop  ReasonCode = "channel_stop"
	ReasonChannelSend  ReasonCode = "channel_send"
	ReasonChannelEvent ReasonCode = "channel_event"

	ReasonTelemetryStart   ReasonCode = "telemetry_start"
	ReasonTelemetryStop    ReasonCode = "telemetry_stop"
	ReasonTelemetryCamera  ReasonCode = "telemetry_camera"
	ReasonTelemetryControl ReasonCode = "telemetry_control"

	ReasonFeedbackGenerate  ReasonCode = "feedback_generate"
	ReasonInterviewGenerate ReasonCode = "interview_generate"
	ReasonInterviewPersist  ReasonCode = "interview_persist"
	ReasonFeedbackPersist   ReasonCode = "feedback_persist"
	ReasonGenerateRateLimit ReasonCode = "generate_rate_limit"
	ReasonCascadeExhausted  ReasonCode = "cascade_exhausted"
)
