package res

// TimeLayout is the timestamp format of every response payload.
const TimeLayout = "2006-01-02 15:04:05.000"

type CommonResponse[T any] struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
}

type ErrorResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
}
