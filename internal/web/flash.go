package web

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const flashCookie = "roombook_flash"

// Flash is a one-shot message carried across the post/redirect/get cycle.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

type FlashStore struct{ sc *securecookie.SecureCookie }

// NewFlashStore signs and encrypts flash cookies. Missing keys are replaced with
// random ones, which only invalidates in-flight flashes on restart.
func NewFlashStore(hashKey, blockKey []byte) *FlashStore {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	if len(blockKey) == 0 {
		blockKey = securecookie.GenerateRandomKey(32)
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int((5 * time.Minute).Seconds()))
	return &FlashStore{sc: sc}
}

func (f *FlashStore) Set(w http.ResponseWriter, r *http.Request, fl Flash) error {
	encoded, err := f.sc.Encode(flashCookie, fl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return nil
}

// Pop returns the pending flash, if any, and clears it.
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return Flash{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name: flashCookie, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	var fl Flash
	if err := f.sc.Decode(flashCookie, c.Value, &fl); err != nil {
		return Flash{}, false
	}
	return fl, true
}
