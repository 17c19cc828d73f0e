// Copyright 2020 Converter Systems LLC. All rights reserved.

package uatree

import (
	"context"

	"github.com/awcullen/uatree/ua"
	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/id"
	gua "github.com/gopcua/opcua/ua"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// Session is the part of a gopcua client used by Client.
type Session interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	Read(ctx context.Context, req *gua.ReadRequest) (*gua.ReadResponse, error)
	Write(ctx context.Context, req *gua.WriteRequest) (*gua.WriteResponse, error)
	AddNodes(ctx context.Context, req *gua.AddNodesRequest) (*gua.AddNodesResponse, error)
}

// opcuaSession adds the AddNodes service to a gopcua client.
type opcuaSession struct {
	*opcua.Client
}

var _ Session = opcuaSession{}

func (s opcuaSession) AddNodes(ctx context.Context, req *gua.AddNodesRequest) (*gua.AddNodesResponse, error) {
	var res *gua.AddNodesResponse
	err := s.Send(ctx, req, func(v interface{}) error {
		r, ok := v.(*gua.AddNodesResponse)
		if !ok {
			return errors.Errorf("add nodes: unexpected response %T", v)
		}
		res = r
		return nil
	})
	return res, err
}

// Client reads, writes and adds nodes of a remote server.
type Client struct {
	endpointURL string
	session     Session
	backoff     func() retry.Backoff
	logger      logrus.FieldLogger
}

// NewClient returns a client of the server with the given URL. Call Connect
// before using it.
func NewClient(endpointURL string, opts ...ClientOption) (*Client, error) {
	options, err := applyClientOptions(opts)
	if err != nil {
		return nil, err
	}
	c, err := opcua.NewClient(endpointURL, options.opcuaOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "create client")
	}
	return &Client{
		endpointURL: endpointURL,
		session:     opcuaSession{c},
		backoff:     options.backoff,
		logger:      options.logger.WithField("endpoint", endpointURL),
	}, nil
}

// NewClientWithSession returns a client that uses the given session.
func NewClientWithSession(session Session, opts ...ClientOption) (*Client, error) {
	if session == nil {
		return nil, errors.New("session is nil")
	}
	options, err := applyClientOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Client{
		session: session,
		backoff: options.backoff,
		logger:  options.logger,
	}, nil
}

func applyClientOptions(opts []ClientOption) (*clientOptions, error) {
	options := newClientOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// EndpointURL returns the URL of the server.
func (c *Client) EndpointURL() string {
	return c.endpointURL
}

// Logger returns the logger of the client.
func (c *Client) Logger() logrus.FieldLogger {
	return c.logger
}

// Connect opens the session, retrying with exponential backoff.
func (c *Client) Connect(ctx context.Context) error {
	attempt := 0
	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		if err := c.session.Connect(ctx); err != nil {
			c.logger.WithField("attempt", attempt).WithError(err).Warn("Error connecting.")
			return retry.RetryableError(err)
		}
		c.logger.Info("Connected.")
		return nil
	})
}

// Close closes the session.
func (c *Client) Close(ctx context.Context) error {
	return c.session.Close(ctx)
}

// ReadValue reads the value attribute of a node.
func (c *Client) ReadValue(ctx context.Context, nodeID ua.NodeID) (ua.DataValue, error) {
	res, err := c.session.Read(ctx, &gua.ReadRequest{
		TimestampsToReturn: gua.TimestampsToReturnBoth,
		NodesToRead: []*gua.ReadValueID{
			{NodeID: toOpcuaNodeID(nodeID), AttributeID: gua.AttributeIDValue},
		},
	})
	if err != nil {
		return ua.DataValue{}, errors.Wrapf(err, "read %s", nodeID)
	}
	if len(res.Results) != 1 {
		return ua.DataValue{}, errors.Wrapf(ua.BadUnexpectedError, "read %s", nodeID)
	}
	dv := fromOpcuaDataValue(res.Results[0])
	if dv.StatusCode.IsBad() {
		return dv, errors.Wrapf(dv.StatusCode, "read %s", nodeID)
	}
	return dv, nil
}

// WriteValue writes the value attribute of a node.
func (c *Client) WriteValue(ctx context.Context, nodeID ua.NodeID, value ua.Variant) error {
	v, err := toOpcuaVariant(value)
	if err != nil {
		return errors.Wrapf(err, "write %s", nodeID)
	}
	res, err := c.session.Write(ctx, &gua.WriteRequest{
		NodesToWrite: []*gua.WriteValue{
			{
				NodeID:      toOpcuaNodeID(nodeID),
				AttributeID: gua.AttributeIDValue,
				Value:       &gua.DataValue{EncodingMask: gua.DataValueValue, Value: v},
			},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "write %s", nodeID)
	}
	if len(res.Results) != 1 {
		return errors.Wrapf(ua.BadUnexpectedError, "write %s", nodeID)
	}
	if code := ua.StatusCode(res.Results[0]); code.IsBad() {
		return errors.Wrapf(code, "write %s", nodeID)
	}
	return nil
}

// AddFolder adds a folder below parent.
func (c *Client) AddFolder(ctx context.Context, parent ua.NodeID, browseName ua.QualifiedName, requestedID ua.NodeID) (ua.NodeID, error) {
	return c.addNode(ctx, &gua.AddNodesItem{
		ParentNodeID:       &gua.ExpandedNodeID{NodeID: toOpcuaNodeID(parent)},
		ReferenceTypeID:    gua.NewNumericNodeID(0, id.Organizes),
		RequestedNewNodeID: &gua.ExpandedNodeID{NodeID: toOpcuaNodeID(requestedID)},
		BrowseName:         &gua.QualifiedName{NamespaceIndex: browseName.NamespaceIndex, Name: browseName.Name},
		NodeClass:          gua.NodeClassObject,
		NodeAttributes: gua.NewExtensionObject(&gua.ObjectAttributes{
			SpecifiedAttributes: uint32(gua.NodeAttributesMaskDisplayName),
			DisplayName:         gua.NewLocalizedText(browseName.Name),
		}),
		TypeDefinition: &gua.ExpandedNodeID{NodeID: gua.NewNumericNodeID(0, id.FolderType)},
	})
}

// AddVariable adds a variable holding value below parent.
func (c *Client) AddVariable(ctx context.Context, parent ua.NodeID, browseName ua.QualifiedName, value ua.Variant, requestedID ua.NodeID) (ua.NodeID, error) {
	v, err := toOpcuaVariant(value)
	if err != nil {
		return ua.NilNodeID, errors.Wrapf(err, "add variable %q", browseName.Name)
	}
	valueRank := ua.ValueRankScalar
	if _, isArray, _ := ua.VariantTypeOf(value); isArray {
		valueRank = ua.ValueRankOneDimension
	}
	accessLevel := ua.AccessLevelsCurrentRead | ua.AccessLevelsCurrentWrite
	return c.addNode(ctx, &gua.AddNodesItem{
		ParentNodeID:       &gua.ExpandedNodeID{NodeID: toOpcuaNodeID(parent)},
		ReferenceTypeID:    gua.NewNumericNodeID(0, id.Organizes),
		RequestedNewNodeID: &gua.ExpandedNodeID{NodeID: toOpcuaNodeID(requestedID)},
		BrowseName:         &gua.QualifiedName{NamespaceIndex: browseName.NamespaceIndex, Name: browseName.Name},
		NodeClass:          gua.NodeClassVariable,
		NodeAttributes: gua.NewExtensionObject(&gua.VariableAttributes{
			SpecifiedAttributes: uint32(gua.NodeAttributesMaskDisplayName | gua.NodeAttributesMaskValue |
				gua.NodeAttributesMaskDataType | gua.NodeAttributesMaskValueRank |
				gua.NodeAttributesMaskAccessLevel | gua.NodeAttributesMaskUserAccessLevel),
			DisplayName:     gua.NewLocalizedText(browseName.Name),
			Value:           v,
			DataType:        toOpcuaNodeID(ua.DataTypeIDOf(value)),
			ValueRank:       valueRank,
			AccessLevel:     accessLevel,
			UserAccessLevel: accessLevel,
		}),
		TypeDefinition: &gua.ExpandedNodeID{NodeID: gua.NewNumericNodeID(0, id.BaseDataVariableType)},
	})
}

func (c *Client) addNode(ctx context.Context, item *gua.AddNodesItem) (ua.NodeID, error) {
	name := item.BrowseName.Name
	res, err := c.session.AddNodes(ctx, &gua.AddNodesRequest{NodesToAdd: []*gua.AddNodesItem{item}})
	if err != nil {
		return ua.NilNodeID, errors.Wrapf(err, "add node %q", name)
	}
	if len(res.Results) != 1 {
		return ua.NilNodeID, errors.Wrapf(ua.BadUnexpectedError, "add node %q", name)
	}
	result := res.Results[0]
	if code := ua.StatusCode(result.StatusCode); code.IsBad() {
		c.logger.WithField("name", name).WithError(code).Debug("Error adding node.")
		return ua.NilNodeID, errors.Wrapf(code, "add node %q", name)
	}
	return fromOpcuaNodeID(result.AddedNodeID), nil
}
