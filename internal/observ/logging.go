package observ

import (
	"encoding/json"
	"os"
	"time"
)

var enc = json.NewEncoder(os.Stdout)

// Log emits one structured JSON event per line on stdout.
func Log(event string, kv map[string]any) {
	if kv == nil {
		kv = map[string]any{}
	}
	kv["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	kv["event"] = event
	_ = enc.Encode(kv)
}
