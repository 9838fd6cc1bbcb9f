package app

import (
	"context"
	"fmt"
	"sync"

	"freshscan/internal/domain/entity"
)

// Workbench четыре независимых контроллера одного оператора.
type Workbench struct {
	order       []entity.ModuleID
	controllers map[entity.ModuleID]*ModuleController
}

// NewWorkbench создаёт контроллеры для всех модулей реестра.
func NewWorkbench(ownerPrefix string, deps ControllerDeps, onEvent func(Event)) *Workbench {
	modules := entity.Modules()
	w := &Workbench{
		order:       make([]entity.ModuleID, 0, len(modules)),
		controllers: make(map[entity.ModuleID]*ModuleController, len(modules)),
	}
	for _, m := range modules {
		owner := fmt.Sprintf("%s/%s", ownerPrefix, m.ID)
		w.order = append(w.order, m.ID)
		w.controllers[m.ID] = NewModuleController(m, owner, deps, onEvent)
	}
	return w
}

// Controller возвращает контроллер модуля.
func (w *Workbench) Controller(id entity.ModuleID) (*ModuleController, error) {
	c, ok := w.controllers[id]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", id)
	}
	return c, nil
}

// Views состояния всех модулей в порядке реестра.
func (w *Workbench) Views() []ModuleView {
	views := make([]ModuleView, 0, len(w.order))
	for _, id := range w.order {
		views = append(views, w.controllers[id].View())
	}
	return views
}

// Close отменяет все незавершённые операции.
func (w *Workbench) Close() {
	for _, id := range w.order {
		w.controllers[id].Cancel()
	}
}

// OperatorEvent событие контроллера с адресом оператора.
type OperatorEvent struct {
	UserID int64
	ChatID int64
	Event
}

// CaptureService хранит рабочие места операторов. Все контроллеры делят одну CaptureSession.
type CaptureService struct {
	users   *UserService
	deps    ControllerDeps
	onEvent func(OperatorEvent)

	mu      sync.Mutex
	benches map[int64]*Workbench
}

// NewCaptureService создаёт сервис. onEvent может быть nil.
func NewCaptureService(users *UserService, deps ControllerDeps, onEvent func(OperatorEvent)) *CaptureService {
	return &CaptureService{
		users:   users,
		deps:    deps,
		onEvent: onEvent,
		benches: make(map[int64]*Workbench),
	}
}

// SetEventHandler задаёт получателя событий до начала работы.
func (s *CaptureService) SetEventHandler(fn func(OperatorEvent)) {
	s.mu.Lock()
	s.onEvent = fn
	s.mu.Unlock()
}

// Workbench возвращает (создавая при первом обращении) рабочее место оператора.
func (s *CaptureService) Workbench(userID, chatID int64) *Workbench {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.benches[userID]; ok {
		return w
	}
	w := NewWorkbench(fmt.Sprintf("user-%d", userID), s.deps, func(ev Event) {
		s.dispatch(OperatorEvent{UserID: userID, ChatID: chatID, Event: ev})
	})
	s.benches[userID] = w
	return w
}

// Active возвращает контроллер активного модуля оператора.
func (s *CaptureService) Active(ctx context.Context, userID, chatID int64) (*ModuleController, error) {
	user, err := s.users.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	return s.Workbench(userID, chatID).Controller(user.ActiveModule)
}

// Close отменяет операции всех операторов и освобождает камеру.
func (s *CaptureService) Close() {
	s.mu.Lock()
	benches := make([]*Workbench, 0, len(s.benches))
	for _, w := range s.benches {
		benches = append(benches, w)
	}
	s.mu.Unlock()

	for _, w := range benches {
		w.Close()
	}
	if s.deps.Session != nil {
		s.deps.Session.Close()
	}
}

func (s *CaptureService) dispatch(ev OperatorEvent) {
	s.mu.Lock()
	fn := s.onEvent
	s.mu.Unlock()

	if fn != nil {
		fn(ev)
	}
}
