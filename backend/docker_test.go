package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
)

type fakeDockerAPI struct {
	pingErr  error
	startErr error
	started  []string

	resp   *container.WaitResponse
	err    error
	closed bool
}

func (f *fakeDockerAPI) Ping(ctx context.Context) (types.Ping, error) {
	return types.Ping{}, f.pingErr
}

func (f *fakeDockerAPI) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	f.started = append(f.started, containerID)
	return f.startErr
}

func (f *fakeDockerAPI) ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	respC := make(chan container.WaitResponse, 1)
	errC := make(chan error, 1)

	switch {
	case f.resp != nil:
		respC <- *f.resp
	case f.err != nil:
		errC <- f.err
	case f.closed:
		close(respC)
	}

	return respC, errC
}

func (f *fakeDockerAPI) Close() error {
	return nil
}

var dockerWaitTestCases = []struct {
	api      *fakeDockerAPI
	expected Completion
}{
	{
		&fakeDockerAPI{resp: &container.WaitResponse{StatusCode: 0}},
		Completion{Outcome: Succeeded},
	},
	{
		&fakeDockerAPI{resp: &container.WaitResponse{StatusCode: 3}},
		Completion{Outcome: FailedStatus, StatusCode: 3},
	},
	{
		&fakeDockerAPI{resp: &container.WaitResponse{
			StatusCode: 1,
			Error:      &container.WaitExitError{Message: "oom"},
		}},
		Completion{Outcome: FailedMessage, Message: "oom", StatusCode: 1},
	},
	{
		&fakeDockerAPI{resp: &container.WaitResponse{
			StatusCode: 2,
			Error:      &container.WaitExitError{},
		}},
		Completion{Outcome: FailedStatus, StatusCode: 2},
	},
	{
		&fakeDockerAPI{err: errBroken},
		Completion{Outcome: Errored, Err: errBroken},
	},
	{
		&fakeDockerAPI{closed: true},
		Completion{Outcome: NoResponse},
	},
}

var errBroken = errors.New("connection reset")

func TestDockerWait(t *testing.T) {
	for i, tt := range dockerWaitTestCases {
		label := fmt.Sprintf("case %d", i)

		d := &Docker{api: tt.api}
		assert.Equal(t, tt.expected, d.Wait(context.Background(), "job"), label)
	}
}

func TestDockerWaitCancelled(t *testing.T) {
	d := &Docker{api: &fakeDockerAPI{}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	completion := d.Wait(ctx, "job")
	assert.Equal(t, Errored, completion.Outcome)
	assert.ErrorIs(t, completion.Err, context.DeadlineExceeded)
}

func TestDockerStartAndPing(t *testing.T) {
	api := &fakeDockerAPI{}
	d := &Docker{api: api}

	assert.NoError(t, d.Ping(context.Background()))
	assert.NoError(t, d.Start(context.Background(), "backup"))
	assert.Equal(t, []string{"backup"}, api.started)

	api.pingErr = errBroken
	api.startErr = errBroken

	assert.ErrorIs(t, d.Ping(context.Background()), errBroken)
	assert.ErrorIs(t, d.Start(context.Background(), "backup"), errBroken)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "no_response", NoResponse.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
