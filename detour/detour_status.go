package detour

type DtStatus uint32

const (
	// High level status.
	DT_FAILURE     DtStatus = 1 << 31 // Operation failed.
	DT_SUCCESS     DtStatus = 1 << 30 // Operation succeed.
	DT_IN_PROGRESS DtStatus = 1 << 29 // Operation still in progress.

	// Detail information for status.
	DT_STATUS_DETAIL_MASK DtStatus = 0x0ffffff
	DT_WRONG_MAGIC        DtStatus = 1 << 0 // Input data is not recognized.
	DT_WRONG_VERSION      DtStatus = 1 << 1 // Input data is in wrong version.
	DT_OUT_OF_MEMORY      DtStatus = 1 << 2 // Operation ran out of memory.
	DT_INVALID_PARAM      DtStatus = 1 << 3 // An input parameter was invalid.
	DT_BUFFER_TOO_SMALL   DtStatus = 1 << 4 // Result buffer for the query was too small to store all results.
	DT_OUT_OF_NODES       DtStatus = 1 << 5 // Query ran out of nodes during search.
	DT_PARTIAL_RESULT     DtStatus = 1 << 6 // Query did not reach the end location, returning best guess.
)

// Succeed returns true of status is success.
func (status DtStatus) Succeed() bool {
	return status&DT_SUCCESS != 0
}

// Failed returns true of status is failure.
func (status DtStatus) Failed() bool {
	return status&DT_FAILURE != 0
}

// InProgress returns true of status is in progress.
func (status DtStatus) InProgress() bool {
	return status&DT_IN_PROGRESS != 0
}

// Detail returns true if specific detail is set.
func (status DtStatus) Detail(detail DtStatus) bool {
	return status&detail != 0
}
