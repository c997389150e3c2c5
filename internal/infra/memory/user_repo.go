package memory

import "sync"

type UserRepo struct {
	mu      sync.RWMutex
	chatIDs map[int64]struct{}
	order   []int64
}

func NewUserRepo() *UserRepo {
	return &UserRepo{chatIDs: make(map[int64]struct{})}
}

func (r *UserRepo) SaveUser(chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chatIDs[chatID]; ok {
		return nil
	}
	r.chatIDs[chatID] = struct{}{}
	r.order = append(r.order, chatID)
	return nil
}

func (r *UserRepo) ListChatIDs() ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, len(r.order))
	copy(out, r.order)
	return out, nil
}
