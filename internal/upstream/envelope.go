package upstream

import (
	"fmt"
	"sort"
	"strings"
)

const successCode = "00"

// envelopeShape enumerates the response envelopes the upstream service is
// known to emit. Anything outside the enum is treated as failure.
type envelopeShape int

const (
	shapeUnknown envelopeShape = iota
	// shapeResponseHeader: {"response": {"header": {"resultCode": "00", ...}}}
	shapeResponseHeader
	// shapeCmmMsgHeader: {"cmmMsgHeader": {"returnReasonCode": "00", ...}}
	shapeCmmMsgHeader
	// shapeNested: either header wrapped one level deeper, e.g.
	// {"OpenAPI_ServiceResponse": {"cmmMsgHeader": {...}}}
	shapeNested
)

type envelopeVerdict struct {
	shape envelopeShape
	ok    bool
	code  string
	msg   string
}

// validateEnvelope inspects the decoded document against the known shapes in
// fixed priority order and returns a definite verdict. Unfamiliar shapes are
// a failure, never a panic.
func validateEnvelope(doc map[string]any) envelopeVerdict {
	if verdict, found := checkResponseHeader(doc); found {
		return verdict
	}
	if verdict, found := checkCmmMsgHeader(doc); found {
		return verdict
	}
	for _, value := range doc {
		inner, ok := value.(map[string]any)
		if !ok {
			continue
		}
		if verdict, found := checkResponseHeader(inner); found {
			verdict.shape = shapeNested
			return verdict
		}
		if verdict, found := checkCmmMsgHeader(inner); found {
			verdict.shape = shapeNested
			return verdict
		}
	}

	return envelopeVerdict{
		shape: shapeUnknown,
		ok:    false,
		msg:   fmt.Sprintf("unrecognized envelope, top-level keys: %s", strings.Join(topLevelKeys(doc), ", ")),
	}
}

func checkResponseHeader(doc map[string]any) (envelopeVerdict, bool) {
	response, ok := doc["response"].(map[string]any)
	if !ok {
		return envelopeVerdict{}, false
	}
	header, ok := response["header"].(map[string]any)
	if !ok {
		return envelopeVerdict{}, false
	}

	code, _ := header["resultCode"].(string)
	msg, _ := header["resultMsg"].(string)
	return envelopeVerdict{
		shape: shapeResponseHeader,
		ok:    code == successCode,
		code:  code,
		msg:   msg,
	}, true
}

func checkCmmMsgHeader(doc map[string]any) (envelopeVerdict, bool) {
	header, ok := doc["cmmMsgHeader"].(map[string]any)
	if !ok {
		return envelopeVerdict{}, false
	}

	code, _ := header["returnReasonCode"].(string)
	msg, _ := header["returnAuthMsg"].(string)
	if msg == "" {
		msg, _ = header["errMsg"].(string)
	}
	return envelopeVerdict{
		shape: shapeCmmMsgHeader,
		ok:    code == successCode,
		code:  code,
		msg:   msg,
	}, true
}

func topLevelKeys(doc map[string]any) []string {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
