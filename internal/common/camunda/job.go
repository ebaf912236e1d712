package camunda

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/validation"
)

// DecodeVariables validates the job's variables against schema and unmarshals them into out.
func DecodeVariables(job entities.Job, schema validation.JSONSchema, out interface{}) error {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return errors.NewParseError(err)
	}

	result := validation.ValidateInput(variables, schema)
	if !result.Valid {
		return errors.NewValidationFailedError(result.GetErrorMessages())
	}

	if err := job.GetVariablesAs(out); err != nil {
		return errors.NewParseError(err)
	}
	return nil
}

// CompleteJob completes job with variables as its output.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, variables map[string]interface{}) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		return err
	}
	_, err = request.Send(ctx)
	return err
}
