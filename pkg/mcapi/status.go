package mcapi

import "github.com/jabolina/go-mcapi/pkg/mcapi/types"

// StatusString implements mcapi_display_status (spec §8): renders
// code's message into buf, NUL-terminated within buf's bounds.
func StatusString(code types.Status, buf []byte) []byte {
	return types.DisplayStatus(code, buf)
}
