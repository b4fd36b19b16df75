// Package signoff coordinates multi-step, multi-approver sign-off workflows
// that gate risky operations behind human approval.
//
// The root package wires the approval engine with its collaborators (request
// store, event queue, identity directory, audit log, tracing) from a Config:
//
//	srv, _ := signoff.New(signoff.WithConfig(cfg))
//	defer srv.Close()
//	r, _ := srv.Approvals().CreateRequest(ctx, draft)
//	r, _ = srv.Approvals().ProcessResponse(ctx, r.ID, r.Steps[0].ID, &model.Response{
//		Approver: "bob",
//		Decision: model.DecisionApprove,
//	})
//
// See service/approval for the workflow semantics.
package signoff
