package llm

import "time"

var DefaultStreamClient *StreamClient

func InitDefaultStreamClient(baseUrl, defaultAPIKey, model string, timeout time.Duration) *StreamClient {
	DefaultStreamClient = NewStreamClient(baseUrl, defaultAPIKey, model, timeout)
	return DefaultStreamClient
}

func GetDefaultStreamClient() *StreamClient {
	return DefaultStreamClient
}
