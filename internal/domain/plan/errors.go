package plan

import xerrors "billing-service/internal/pkg/errors"

func errValidation(msg string) error {
	return xerrors.Validation("%s", msg)
}
