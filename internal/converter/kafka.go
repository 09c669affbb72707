package converter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
)

// Event payloads travel as google.protobuf.Struct messages.

type kafkaConverter struct{}

func NewKafkaConverter() *kafkaConverter { return &kafkaConverter{} }

func (c *kafkaConverter) DispatchExecutedToPayload(e model.DispatchExecutedEvent) ([]byte, error) {
	pb, err := structpb.NewStruct(map[string]any{
		"event_uuid":    e.EventID.String(),
		"dispatch_uuid": e.DispatchID.String(),
		"human_number":  e.HumanNumber,
		"order_uuid":    e.OrderID.String(),
		"order_status":  string(e.OrderStatus),
		"quantity":      e.Quantity,
		"grand_total":   e.GrandTotal,
		"executed_at":   e.ExecutedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build dispatch executed struct: %w", err)
	}

	payload, err := proto.Marshal(pb)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal protobuf: %w", err)
	}

	return payload, nil
}

func (c *kafkaConverter) DispatchExecutedToModel(data []byte) (model.DispatchExecutedEvent, error) {
	fields, err := decode(data)
	if err != nil {
		return model.DispatchExecutedEvent{}, err
	}

	var e model.DispatchExecutedEvent
	if e.EventID, err = parseUUID(fields, "event_uuid"); err != nil {
		return model.DispatchExecutedEvent{}, err
	}
	if e.DispatchID, err = parseUUID(fields, "dispatch_uuid"); err != nil {
		return model.DispatchExecutedEvent{}, err
	}
	if e.OrderID, err = parseUUID(fields, "order_uuid"); err != nil {
		return model.DispatchExecutedEvent{}, err
	}
	e.HumanNumber = fields["human_number"].GetStringValue()
	e.OrderStatus = model.OrderStatus(fields["order_status"].GetStringValue())
	e.Quantity = fields["quantity"].GetStringValue()
	e.GrandTotal = fields["grand_total"].GetStringValue()
	if e.ExecutedAt, err = time.Parse(time.RFC3339Nano, fields["executed_at"].GetStringValue()); err != nil {
		return model.DispatchExecutedEvent{}, fmt.Errorf("invalid executed_at: %w", err)
	}

	return e, nil
}

func (c *kafkaConverter) OrderApprovalDecidedToPayload(e model.OrderApprovalDecided) ([]byte, error) {
	pb, err := structpb.NewStruct(map[string]any{
		"event_uuid": e.EventID.String(),
		"order_uuid": e.OrderID.String(),
		"decision":   string(e.Decision),
		"approver":   e.Approver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build approval struct: %w", err)
	}

	payload, err := proto.Marshal(pb)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal protobuf: %w", err)
	}

	return payload, nil
}

func (c *kafkaConverter) OrderApprovalDecidedToModel(data []byte) (model.OrderApprovalDecided, error) {
	fields, err := decode(data)
	if err != nil {
		return model.OrderApprovalDecided{}, err
	}

	var e model.OrderApprovalDecided
	if e.EventID, err = parseUUID(fields, "event_uuid"); err != nil {
		return model.OrderApprovalDecided{}, err
	}
	if e.OrderID, err = parseUUID(fields, "order_uuid"); err != nil {
		return model.OrderApprovalDecided{}, err
	}
	e.Decision = model.OrderDecision(fields["decision"].GetStringValue())
	e.Approver = fields["approver"].GetStringValue()

	return e, nil
}

func decode(data []byte) (map[string]*structpb.Value, error) {
	var pb structpb.Struct
	if err := proto.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("failed to unmarshal protobuf: %w", err)
	}
	return pb.GetFields(), nil
}

func parseUUID(fields map[string]*structpb.Value, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(fields[key].GetStringValue())
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid %s: nil uuid", key)
	}
	return id, nil
}
