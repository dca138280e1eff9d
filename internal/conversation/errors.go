package conversation

import apierrors "github.com/diogo/samarth/internal/errors"

var errNoFactory = apierrors.NewConfigurationError("session", "no session factory configured")
