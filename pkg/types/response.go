package types

type SuccessEnvelope struct {
	Success    bool `json:"success"`
	StatusCode int  `json:"statusCode"`
	Data       any  `json:"data"`
}

// ErrorEnvelope is the stable failure shape returned by every endpoint.
type ErrorEnvelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Details    any    `json:"details,omitempty"`
}
