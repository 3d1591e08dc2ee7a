package model

type WorkflowStartRequest struct {
	Operation OperationKind  `json:"operation"`
	ScopeId   string         `json:"entrepriseId"`
	TargetId  string         `json:"targetId"`
	Payload   map[string]any `json:"payload"`
	Recap     bool           `json:"recap"`
}

type WorkflowSubmitRequest struct {
	Payload map[string]any `json:"payload"`
}

type CodeSubmitRequest struct {
	Code string `json:"code"`
}
