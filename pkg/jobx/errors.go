package jobx

import "github.com/maix-platform/maix/pkg/errx"

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrNoDeliverer = jobxErrors.Register("NO_DELIVERER", errx.TypeValidation, 400, "A deliverer is required")
)
