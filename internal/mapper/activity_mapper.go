package mapper

import (
	"issue-agent-be/internal/dto"
	"issue-agent-be/pkg/agent/protocol"
)

type ActivityMapper struct{}

func NewActivityMapper() *ActivityMapper {
	return &ActivityMapper{}
}

func (m *ActivityMapper) ToResponse(a protocol.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		Kind:            string(a.Kind),
		Body:            a.Body,
		Parameter:       a.Parameter,
		Action:          string(a.Action),
		ActionParameter: a.ActionParameter,
	}
}

func (m *ActivityMapper) ToResponseList(activities []protocol.Activity) []dto.ActivityResponse {
	out := make([]dto.ActivityResponse, len(activities))
	for i, a := range activities {
		out[i] = m.ToResponse(a)
	}
	return out
}
