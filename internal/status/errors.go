package status

import "errors"

const statusReaderNotConfiguredMessageConstant = "pull request status reader not configured"

// ErrStatusReaderNotConfigured indicates the service was constructed without a status reader.
var ErrStatusReaderNotConfigured = errors.New(statusReaderNotConfiguredMessageConstant)
