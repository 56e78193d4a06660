package chainpay

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/liberland/chainpay/schema"
	"gopkg.in/h2non/gentleman.v2"
	"gorm.io/datatypes"
)

const (
	DefaultMaxAttempts = 3

	signatureHeader = "X-Chainpay-Signature"
)

// Dispatcher delivers signed webhook payloads to registered callback
// urls. Attempts for one order key are strictly sequential; the first
// acknowledged attempt wins and ends the loop. Failures are absorbed
// into the result, never raised.
type Dispatcher struct {
	signer      *Signer
	wdb         *Wdb // attempt audit trail, may be nil
	maxAttempts int

	ordLockers map[string]*sync.Mutex
	locker     sync.Mutex
}

func NewDispatcher(signer *Signer, wdb *Wdb, maxAttempts int) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Dispatcher{
		signer:      signer,
		wdb:         wdb,
		maxAttempts: maxAttempts,
		ordLockers:  make(map[string]*sync.Mutex),
	}
}

// orderLocker entries live for the process lifetime; pruning one while
// another goroutine waits on it would let two Deliver calls for the
// same order run their attempts concurrently.
func (d *Dispatcher) orderLocker(orderId string) *sync.Mutex {
	d.locker.Lock()
	defer d.locker.Unlock()
	mu, ok := d.ordLockers[orderId]
	if !ok {
		mu = &sync.Mutex{}
		d.ordLockers[orderId] = mu
	}
	return mu
}

// Deliver posts the payload to callback until one attempt is
// acknowledged with 200/201 or the attempt budget runs out.
func (d *Dispatcher) Deliver(orderId, callback string, payload schema.WebhookPayload) schema.DeliveryResult {
	mu := d.orderLocker(orderId)
	mu.Lock()
	defer mu.Unlock()

	body, err := CanonicalJSON(&payload)
	if err != nil {
		log.Error("marshal webhook payload", "err", err, "orderId", orderId)
		return schema.DeliveryResult{}
	}
	signature, err := d.signer.Sign(&payload)
	if err != nil {
		log.Error("sign webhook payload", "err", err, "orderId", orderId)
		return schema.DeliveryResult{}
	}

	res := schema.DeliveryResult{}
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		res.Attempts = attempt
		statusCode, respBody, err := d.post(callback, body, signature)
		if err != nil {
			log.Warn("webhook attempt failed", "orderId", orderId, "attempt", attempt, "err", err)
			res.StatusCode = 0
			res.Body = ""
			d.recordAttempt(orderId, callback, attempt, 0, "", err.Error())
			continue
		}
		if statusCode == 200 || statusCode == 201 {
			res.Success = true
			res.StatusCode = statusCode
			res.Body = ""
			d.recordAttempt(orderId, callback, attempt, statusCode, "", "")
			return res
		}
		log.Warn("webhook attempt rejected", "orderId", orderId, "attempt", attempt, "statusCode", statusCode, "body", respBody)
		res.StatusCode = statusCode
		res.Body = respBody
		d.recordAttempt(orderId, callback, attempt, statusCode, respBody, "")
	}
	return res
}

func (d *Dispatcher) post(callback string, body []byte, signature string) (statusCode int, respBody string, err error) {
	req := gentleman.New().URL(callback).Post()
	req.SetHeader("Content-Type", "application/json")
	if len(signature) != 0 {
		req.SetHeader(signatureHeader, signature)
	}
	req.Body(bytes.NewReader(body))
	resp, err := req.Send()
	if err != nil {
		return 0, "", err
	}
	defer resp.Close()
	return resp.StatusCode, resp.String(), nil
}

func (d *Dispatcher) recordAttempt(orderId, callback string, attempt, statusCode int, respBody, errMsg string) {
	if d.wdb == nil {
		return
	}
	status := schema.AttemptFailed
	if statusCode == 200 || statusCode == 201 {
		status = schema.AttemptSucc
	}
	var response datatypes.JSON
	if len(respBody) != 0 {
		if json.Valid([]byte(respBody)) {
			response = datatypes.JSON(respBody)
		} else {
			raw, _ := json.Marshal(respBody)
			response = raw
		}
	}
	da := schema.DeliveryAttempt{
		AttemptId:  uuid.NewString(),
		OrderId:    orderId,
		Attempt:    attempt,
		Callback:   callback,
		StatusCode: statusCode,
		Response:   response,
		Status:     status,
		ErrMsg:     errMsg,
	}
	if err := d.wdb.InsertDeliveryAttempt(da); err != nil {
		log.Error("insert delivery attempt", "err", err, "orderId", orderId)
	}
}
