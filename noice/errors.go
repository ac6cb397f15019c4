package noice

import "noice.so/noice/runtime"

// Program error codes. Custom codes start at 6000, matching the
// deployed program's error enum.
var (
	ErrInvalidTokenMint = &runtime.ProgramError{Code: 6000, Name: "InvalidTokenMint", Msg: "Invalid token mint provided"}
	ErrContentIDTooLong = &runtime.ProgramError{Code: 6001, Name: "ContentIDTooLong", Msg: "Content id exceeds the paywall's allocated space"}
)
