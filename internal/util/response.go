package util

// Envelope is the JSON body shape shared by every auth endpoint.
type Envelope map[string]any

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func Error(message string) Envelope {
	return Envelope{"status": StatusError, "message": message}
}

func Success(message string) Envelope {
	return Envelope{"status": StatusSuccess, "message": message}
}

// With returns a copy of e with key set to value.
func (e Envelope) With(key string, value any) Envelope {
	out := make(Envelope, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[key] = value
	return out
}
