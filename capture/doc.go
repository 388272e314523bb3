/*
Package capture provides a traffic sniffer using pcap or a pcap file.
it delivers raw packets only, TCP reassembly and frame extraction live in the
wire package. the capture host runs the game client, so the automatic BPF
filter watches both directions of the server ports.

example:

listener, err := capture.NewListener(host, ports, opts)
if err != nil {
	// handle error
}
err = listener.Activate()
if err != nil {
	// handle it
}

if err := listener.Listen(context.Background(), handler); err != nil {
	 // handle error
}
// or
errCh := listener.ListenBackground(context.Background(), handler) // runs in the background
select {
case err := <- errCh:
	// handle error
case <-quit:
	//
case <- l.Reading: // if we have started reading
}

*/
package capture
