// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/loan-review/pkg/constants"
)

// OutputFormats lists the supported output formats.
var OutputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
	constants.OutputFormatXLSX,
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	for _, supported := range OutputFormats {
		if format == supported {
			return nil
		}
	}
	return fmt.Errorf("expected output format of %s, %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV,
		constants.OutputFormatJSON, constants.OutputFormatXLSX, format)
}
