package inference

import (
	"context"
	"sync"

	"github.com/khaledhikmat/vision-gateway/model"
)

type FakeCall struct {
	Task    model.Task
	AbsPath string
	Params  model.Params
}

// FakeService answers every call with Result or Err and remembers the calls.
type FakeService struct {
	Result Result
	Err    error

	mu    sync.Mutex
	calls []FakeCall
}

func NewFake() *FakeService {
	return &FakeService{}
}

func (svc *FakeService) Invoke(_ context.Context, task model.Task, absPath string, params model.Params) (Result, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.calls = append(svc.calls, FakeCall{Task: task, AbsPath: absPath, Params: params})
	if svc.Err != nil {
		return Result{}, svc.Err
	}
	return svc.Result, nil
}

func (svc *FakeService) Calls() []FakeCall {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return append([]FakeCall(nil), svc.calls...)
}
