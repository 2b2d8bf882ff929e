package model

// Request and response schemas for the REST surface. All binary fields are
// base64 strings on the wire and raw bytes at rest.

type (
	RegisterRequest struct {
		Username         string `json:"username"`
		PublicKey        string `json:"publicKey"`
		SigningPublicKey string `json:"signingPublicKey"`
	}

	RegisterResponse struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Message  string `json:"message"`
	}

	UserSummary struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		CreatedAt string `json:"createdAt"`
	}

	UserListResponse struct {
		Users []UserSummary `json:"users"`
	}

	UserResponse struct {
		ID               string `json:"id"`
		Username         string `json:"username"`
		PublicKey        string `json:"publicKey"`
		SigningPublicKey string `json:"signingPublicKey"`
		CreatedAt        string `json:"createdAt"`
	}

	SessionRequest struct {
		Username1 string `json:"username1"`
		Username2 string `json:"username2"`
	}

	SessionResponse struct {
		SessionID         string `json:"sessionId"`
		CounterForLow     int64  `json:"counterForLow"`
		CounterForHigh    int64  `json:"counterForHigh"`
		RotationThreshold int64  `json:"rotationThreshold"`
		NeedsRotation     bool   `json:"needsRotation"`
	}

	CounterRequest struct {
		Username1 string `json:"username1"`
		Username2 string `json:"username2"`
		Counter   *int64 `json:"counter"`
		FromUser  string `json:"fromUser"`
	}

	CounterResponse struct {
		Success           bool  `json:"success"`
		Counter           int64 `json:"counter"`
		NeedsRotation     bool  `json:"needsRotation"`
		RotationThreshold int64 `json:"rotationThreshold"`
	}

	SendMessageRequest struct {
		FromUsername     string `json:"fromUsername"`
		ToUsername       string `json:"toUsername"`
		EncryptedContent string `json:"encryptedContent"`
		Nonce            string `json:"nonce"`
		Signature        string `json:"signature"`
		Counter          *int64 `json:"counter"`
	}

	SendMessageResponse struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}

	MessageView struct {
		ID               string `json:"id"`
		FromUsername     string `json:"fromUsername"`
		EncryptedContent string `json:"encryptedContent"`
		Nonce            string `json:"nonce"`
		Signature        string `json:"signature"`
		Counter          int64  `json:"counter"`
		CreatedAt        string `json:"createdAt"`
	}

	MessageListResponse struct {
		Messages []MessageView `json:"messages"`
	}

	AckResponse struct {
		Message string `json:"message"`
	}

	HealthResponse struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}

	// ErrorResponse is the uniform failure body. The counter fields are
	// populated only for replay rejections.
	ErrorResponse struct {
		Error           string `json:"error"`
		ExpectedCounter *int64 `json:"expectedCounter,omitempty"`
		ReceivedCounter *int64 `json:"receivedCounter,omitempty"`
	}
)
