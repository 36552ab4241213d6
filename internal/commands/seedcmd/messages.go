package seedcmd

import (
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const applyMessageType = "cms.seed.apply"

// ApplyFixturesCommand loads fixture files into the document store. An empty
// Directory applies the bundled fixtures.
type ApplyFixturesCommand struct {
	Directory string `json:"directory,omitempty"`
}

// Type implements command.Message.
func (ApplyFixturesCommand) Type() string { return applyMessageType }

// Validate ensures a supplied directory exists.
func (cmd ApplyFixturesCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.By(func(value any) error {
			dir := strings.TrimSpace(value.(string))
			if dir == "" {
				return nil
			}
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return validation.NewError("cms.seed.apply.directory_invalid", "directory must exist")
			}
			return nil
		})),
	)
}
