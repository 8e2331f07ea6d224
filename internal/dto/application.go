package dto

// SubmitApplicationRequest is the body of POST /applications.
type SubmitApplicationRequest struct {
	RequestedRole     string `json:"requested_role"`
	TargetMainBakerID *int64 `json:"target_main_baker_id,omitempty"`
	Reason            string `json:"reason"`
}
