/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package stream serves live errors to gRPC subscribers as
// google.protobuf.Struct messages on lineradar.LiveErrors/Subscribe.
package stream

import (
	"encoding/json"
	"fmt"

	"github.com/mfreeman451/lineradar/pkg/models"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName      = "lineradar.LiveErrors"
	subscribeMethod  = "/lineradar.LiveErrors/Subscribe"
	stationFilterKey = "station"
)

// LiveErrorsServer is the server side of lineradar.LiveErrors.
type LiveErrorsServer interface {
	// Subscribe streams live errors until the client goes away. The request
	// may carry a "station" field restricting the stream to one station.
	Subscribe(req *structpb.Struct, stream grpc.ServerStream) error
}

// ServiceDesc describes lineradar.LiveErrors for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LiveErrorsServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "lineradar/live_errors.proto",
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}

	return srv.(LiveErrorsServer).Subscribe(req, stream)
}

// ToStruct converts ev into its wire message.
func ToStruct(ev *models.LiveErrorEvent) (*structpb.Struct, error) {
	msg, err := structpb.NewStruct(ev.AsMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidMessage, err)
	}

	return msg, nil
}

// FromStruct decodes a wire message back into an event.
func FromStruct(msg *structpb.Struct) (*models.LiveErrorEvent, error) {
	data, err := json.Marshal(msg.AsMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidMessage, err)
	}

	var ev models.LiveErrorEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidMessage, err)
	}

	return &ev, nil
}

func stationFilter(req *structpb.Struct) string {
	if req == nil {
		return ""
	}

	if v, ok := req.GetFields()[stationFilterKey]; ok {
		return v.GetStringValue()
	}

	return ""
}
