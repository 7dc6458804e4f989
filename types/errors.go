package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidReference    = errors.New("invalid repository reference")
	ErrUnsupportedProvider = errors.New("unsupported repository provider")
	ErrArchiveCorrupt      = errors.New("archive is not a valid zip container")
)

// MetadataFetchFailedError is returned when the provider's repository
// metadata endpoint answers with a non-success status. Body is the raw
// response body, or the client error text when none was received.
type MetadataFetchFailedError struct {
	Status int
	Body   string
}

func (e *MetadataFetchFailedError) Error() string {
	return fmt.Sprintf("failed to fetch repository information: %d - response body: %s", e.Status, e.Body)
}

type DownloadFailedError struct {
	Status int
	URL    string
}

func (e *DownloadFailedError) Error() string {
	return fmt.Sprintf("failed to download archive %s: status %d", e.URL, e.Status)
}

type EntryReadFailedError struct {
	Entry string
	Err   error
}

func (e *EntryReadFailedError) Error() string {
	return fmt.Sprintf("failed to read archive entry %s: %v", e.Entry, e.Err)
}

func (e *EntryReadFailedError) Unwrap() error {
	return e.Err
}

// RemoteAnalysisFailedError carries the message reported by the completion endpoint.
type RemoteAnalysisFailedError struct {
	Message string
}

func (e *RemoteAnalysisFailedError) Error() string {
	return "remote analysis failed: " + e.Message
}

type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not set in environment", e.Name)
}
