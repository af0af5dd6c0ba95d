package company

import (
	"encoding/json"
	"os"

	"github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

// LoadCatalog reads a curated JSON catalogue of corporate giving programs.
// Programs without an ID are assigned one; invalid entries fail the load
// rather than being silently dropped, since catalogues are hand-maintained.
func LoadCatalog(path string) ([]*AICompany, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "reading company catalogue %s", path)
	}
	var companies []*AICompany
	if err := json.Unmarshal(data, &companies); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding company catalogue %s", path)
	}
	for _, c := range companies {
		if c.ID == "" {
			c.ID = common.NewID()
		}
		if err := c.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "catalogue entry %q", c.Name)
		}
	}
	return companies, nil
}
