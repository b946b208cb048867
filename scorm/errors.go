package scorm

// RTE error codes shared by both SCORM dialects. The runtime only ever hands
// these to content as numeric strings; GetErrorString/GetDiagnostic resolve
// them to the human text below.
const (
	ErrNone                = "0"
	ErrGeneralException    = "101"
	ErrInitFailure         = "102"
	ErrAlreadyInitialized  = "103"
	ErrContentTerminated   = "104"
	ErrTerminationFailure  = "111"
	ErrTerminateBeforeInit = "112"
	ErrTerminateAfterTerm  = "113"
	ErrGetBeforeInit       = "122"
	ErrGetAfterTerm        = "123"
	ErrSetBeforeInit       = "132"
	ErrSetAfterTerm        = "133"
	ErrCommitBeforeInit    = "142"
	ErrCommitAfterTerm     = "143"
	ErrArgument            = "201"
	ErrGetFailure          = "301"
	ErrSetFailure          = "351"
	ErrCommitFailure       = "391"
	ErrUndefinedElement    = "401"
	ErrUnimplemented       = "402"
	ErrNotInitializedValue = "403"
	ErrReadOnly            = "404"
	ErrWriteOnly           = "405"
	ErrTypeMismatch        = "406"
	ErrOutOfRange          = "407"
)

var errorStrings = map[string]string{
	ErrNone:                "No Error",
	ErrGeneralException:    "General Exception",
	ErrInitFailure:         "General Initialization Failure",
	ErrAlreadyInitialized:  "Already Initialized",
	ErrContentTerminated:   "Content Instance Terminated",
	ErrTerminationFailure:  "General Termination Failure",
	ErrTerminateBeforeInit: "Termination Before Initialization",
	ErrTerminateAfterTerm:  "Termination After Termination",
	ErrGetBeforeInit:       "Retrieve Data Before Initialization",
	ErrGetAfterTerm:        "Retrieve Data After Termination",
	ErrSetBeforeInit:       "Store Data Before Initialization",
	ErrSetAfterTerm:        "Store Data After Termination",
	ErrCommitBeforeInit:    "Commit Before Initialization",
	ErrCommitAfterTerm:     "Commit After Termination",
	ErrArgument:            "General Argument Error",
	ErrGetFailure:          "General Get Failure",
	ErrSetFailure:          "General Set Failure",
	ErrCommitFailure:       "General Commit Failure",
	ErrUndefinedElement:    "Undefined Data Model Element",
	ErrUnimplemented:       "Unimplemented Data Model Element",
	ErrNotInitializedValue: "Data Model Element Value Not Initialized",
	ErrReadOnly:            "Data Model Element Is Read Only",
	ErrWriteOnly:           "Data Model Element Is Write Only",
	ErrTypeMismatch:        "Data Model Element Type Mismatch",
	ErrOutOfRange:          "Data Model Element Value Out Of Range",
}

// ErrorString resolves an RTE error code to its human readable text
func ErrorString(code string) string {
	if s, ok := errorStrings[code]; ok {
		return s
	}
	return "Unknown Error"
}
