// Package dify is a client for the Dify Service API.
//
// A Client is created with an API key and functional options, and exposes
// the completion, chat, and workflow endpoints in both blocking and
// streaming flavors, plus file upload, feedback, and suggestion calls.
//
//	client := dify.New(apiKey)
//	resp, err := client.ChatMessages(ctx, &dify.ChatRequest{
//	    Query: "Hello",
//	    User:  "user-1",
//	})
//
// Streaming calls return an *EventStream whose channel yields typed
// stream events decoded per endpoint family:
//
//	stream, err := client.ChatMessagesStream(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for chunk := range stream.Ch {
//	    if msg, ok := chunk.(*dify.MessageStreamResponse); ok {
//	        fmt.Print(msg.Answer)
//	    }
//	}
//	if err := <-stream.Err; err != nil {
//	    return err
//	}
package dify
